package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ready4exam/platform/core/governance"
)

type ledgerRepository struct {
	db *ledgerTable
}

var _ governance.LedgerRepository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *DB) *ledgerRepository {
	return &ledgerRepository{db: db.ledger}
}

func (repo *ledgerRepository) AddFinancialEvent(_ context.Context, ev governance.FinancialEvent) (governance.FinancialEvent, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ev.ID = uuid.NewString()
	repo.db.table[ev.SchoolID] = append(repo.db.table[ev.SchoolID], ev)
	return ev, nil
}

func (repo *ledgerRepository) QueryFinancialEvents(_ context.Context, schoolID string) ([]governance.FinancialEvent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]governance.FinancialEvent, len(repo.db.table[schoolID]))
	copy(events, repo.db.table[schoolID])
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })
	return events, nil
}
