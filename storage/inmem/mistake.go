package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ready4exam/platform/core/mistake"
)

type mistakeRepository struct {
	db *mistakeTable
}

var _ mistake.Repository = (*mistakeRepository)(nil) // interface compliance check

func NewMistakeRepository(db *DB) *mistakeRepository {
	return &mistakeRepository{db: db.mistake}
}

func (repo *mistakeRepository) AddEntry(_ context.Context, e mistake.Entry) (mistake.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = uuid.NewString()
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *mistakeRepository) QueryEntries(_ context.Context, uid string) ([]mistake.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]mistake.Entry, 0)
	for _, e := range repo.db.table {
		if e.UserID == uid {
			entries = append(entries, *e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	return entries, nil
}

type summaryRepository struct {
	db *summaryTable
}

var _ mistake.SummaryRepository = (*summaryRepository)(nil) // interface compliance check

func NewSummaryRepository(db *DB) *summaryRepository {
	return &summaryRepository{db: db.summary}
}

func (repo *summaryRepository) GetSummary(_ context.Context, id string) (mistake.Summary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return mistake.Summary{}, mistake.ErrSummaryNotFound
}

// PutSummary seeds a chapter summary.
func (repo *summaryRepository) PutSummary(_ context.Context, s mistake.Summary) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[s.ID] = &s
	return nil
}
