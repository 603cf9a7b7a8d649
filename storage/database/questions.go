package database

import (
	"context"
	"database/sql"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/quiz"
)

var (
	// errors
	ErrUnknownTable     = errors.New("quiz table is not registered")
	ErrInvalidTableName = errors.New("invalid quiz table name")

	tableNameRx    = regexp.MustCompile(`^[a-z0-9_]+$`)
	reservedTables = map[string]bool{"quiz_tables": true, "question_template": true, "goose_db_version": true}
)

const questionColumns = "id,question_text,question_type,scenario_reason_text,option_a,option_b,option_c,option_d,correct_answer_key,difficulty"

// QuizTable is a row of the quiz_tables registry.
type QuizTable struct {
	TableName string    `db:"table_name" json:"table_name"`
	Subject   string    `db:"subject" json:"subject"`
	Grade     string    `db:"grade" json:"grade"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type questionBank struct {
	db core.DBExecutor
}

var _ quiz.QuestionBank = (*questionBank)(nil) // interface compliance check

func NewQuestionBank(db core.DBExecutor) *questionBank {
	return &questionBank{db: db}
}

// Questions reads the rows of a registered chapter table matching `difficulty`.
func (bank *questionBank) Questions(ctx context.Context, table, difficulty string) ([]quiz.RawQuestion, error) {
	if !tableNameRx.MatchString(table) {
		return nil, ErrInvalidTableName
	}
	var registered bool
	err := bank.db.GetContext(ctx, &registered, "SELECT EXISTS(SELECT 1 FROM quiz_tables WHERE table_name=$1)", table)
	if err != nil {
		return nil, errors.Wrap(err, "checking quiz table")
	}
	if !registered {
		return nil, errors.Wrap(ErrUnknownTable, table)
	}

	rows := make([]quiz.RawQuestion, 0)
	q := "SELECT " + questionColumns + " FROM " + pq.QuoteIdentifier(table) + " WHERE difficulty=$1"
	if err = bank.db.SelectContext(ctx, &rows, q, difficulty); err != nil {
		return nil, errors.Wrapf(err, "reading %s", table)
	}
	return rows, nil
}

// Tables lists the registered chapter tables.
func (bank *questionBank) Tables(ctx context.Context) ([]QuizTable, error) {
	tables := make([]QuizTable, 0)
	err := bank.db.SelectContext(ctx, &tables, "SELECT table_name,subject,grade,created_at FROM quiz_tables ORDER BY table_name")
	if err != nil {
		return nil, errors.Wrap(err, "listing quiz tables")
	}
	return tables, nil
}

// CreateQuizTable creates a chapter table shaped like question_template and registers it.
func CreateQuizTable(ctx context.Context, db *sqlx.DB, topic, subject, grade string) (QuizTable, error) {
	qt := QuizTable{
		TableName: quiz.TableName(topic),
		Subject:   core.CleanString(subject),
		Grade:     core.CleanString(grade),
	}
	if !tableNameRx.MatchString(qt.TableName) || reservedTables[qt.TableName] {
		return QuizTable{}, ErrInvalidTableName
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return QuizTable{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	create := "CREATE TABLE IF NOT EXISTS " + pq.QuoteIdentifier(qt.TableName) + " (LIKE question_template INCLUDING ALL)"
	if _, err = tx.ExecContext(ctx, create); err != nil {
		return QuizTable{}, errors.Wrapf(err, "creating %s", qt.TableName)
	}
	err = tx.GetContext(ctx, &qt.CreatedAt, `
		INSERT INTO quiz_tables (table_name, subject, grade) VALUES ($1, $2, $3)
		ON CONFLICT (table_name) DO UPDATE SET subject=EXCLUDED.subject, grade=EXCLUDED.grade
		RETURNING created_at`, qt.TableName, qt.Subject, qt.Grade)
	if err != nil && err != sql.ErrNoRows {
		return QuizTable{}, errors.Wrapf(err, "registering %s", qt.TableName)
	}
	if err = tx.Commit(); err != nil {
		return QuizTable{}, errors.Wrap(err, "committing transaction")
	}
	return qt, nil
}
