package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ready4exam/platform/core"
	logsvc "github.com/ready4exam/platform/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "REPORT : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	if err := newRootCmd(logger).Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
