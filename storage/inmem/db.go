package inmemdb

import (
	"sync"

	"github.com/ready4exam/platform/core/governance"
	"github.com/ready4exam/platform/core/mistake"
	"github.com/ready4exam/platform/core/quiz"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/core/whitelist"
)

type (
	// DB holds every collection in memory. Documents are stored by value.
	DB struct {
		user      *userTable
		whitelist *whitelistTable
		score     *scoreTable
		mistake   *mistakeTable
		summary   *summaryTable
		ledger    *ledgerTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	whitelistTable struct {
		sync.RWMutex
		table map[string]*whitelist.Entry
	}

	scoreTable struct {
		sync.RWMutex
		table map[string]*quiz.Score
	}

	mistakeTable struct {
		sync.RWMutex
		table map[string]*mistake.Entry
	}

	summaryTable struct {
		sync.RWMutex
		table map[string]*mistake.Summary
	}

	ledgerTable struct {
		sync.RWMutex
		table map[string][]governance.FinancialEvent // by school id
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:      &userTable{table: make(map[string]*user.User)},
		whitelist: &whitelistTable{table: make(map[string]*whitelist.Entry)},
		score:     &scoreTable{table: make(map[string]*quiz.Score)},
		mistake:   &mistakeTable{table: make(map[string]*mistake.Entry)},
		summary:   &summaryTable{table: make(map[string]*mistake.Summary)},
		ledger:    &ledgerTable{table: make(map[string][]governance.FinancialEvent)},
	}
	return db, nil
}
