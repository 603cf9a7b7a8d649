package main

import (
	"fmt"

	"github.com/ready4exam/platform/storage/database"
)

var createQuizTableFunc = database.CreateQuizTable // mockable

func (cli *commandLine) newQuizTable(topic, subject, grade string) error {
	qt, err := createQuizTableFunc(cli.ctx, cli.db, topic, subject, grade)
	if err != nil {
		return err
	}
	fmt.Printf("quiz table %q ready (%s, grade %s)\n", qt.TableName, qt.Subject, qt.Grade)
	return nil
}
