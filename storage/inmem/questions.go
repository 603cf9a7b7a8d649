package inmemdb

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core/quiz"
)

// QuestionBank serves chapter tables from memory.
type QuestionBank struct {
	mu     sync.RWMutex
	tables map[string][]quiz.RawQuestion
	calls  int
}

var _ quiz.QuestionBank = (*QuestionBank)(nil) // interface compliance check

func NewQuestionBank() *QuestionBank {
	return &QuestionBank{tables: make(map[string][]quiz.RawQuestion)}
}

// AddTable registers (or replaces) a chapter table.
func (bank *QuestionBank) AddTable(table string, rows ...quiz.RawQuestion) {
	bank.mu.Lock()
	defer bank.mu.Unlock()
	bank.tables[table] = rows
}

func (bank *QuestionBank) Questions(_ context.Context, table, difficulty string) ([]quiz.RawQuestion, error) {
	bank.mu.Lock()
	defer bank.mu.Unlock()

	bank.calls++
	rows, ok := bank.tables[table]
	if !ok {
		return nil, errors.Errorf("relation %q does not exist", table)
	}
	matched := make([]quiz.RawQuestion, 0, len(rows))
	for _, row := range rows {
		if row.Difficulty.String == difficulty {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

// Calls counts the Questions reads (cache tests).
func (bank *QuestionBank) Calls() int {
	bank.mu.RLock()
	defer bank.mu.RUnlock()
	return bank.calls
}
