package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/whitelist"
)

type whitelistRepository struct {
	db *whitelistTable
}

var _ whitelist.Repository = (*whitelistRepository)(nil) // interface compliance check

func NewWhitelistRepository(db *DB) *whitelistRepository {
	return &whitelistRepository{db: db.whitelist}
}

func (repo *whitelistRepository) GetEntry(_ context.Context, email string) (whitelist.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.table[email]; ok {
		return *e, nil
	}
	return whitelist.Entry{}, whitelist.ErrNotFound
}

func (repo *whitelistRepository) QueryEntries(_ context.Context, schoolID string, orderings ...core.DBOrdering) ([]whitelist.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]whitelist.Entry, 0)
	for _, e := range repo.db.table {
		if schoolID == "" || e.SchoolID == schoolID {
			entries = append(entries, *e)
		}
	}
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "email", Ascending: true}}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		for _, ord := range orderings {
			a, b := entryField(entries[i], ord.Field), entryField(entries[j], ord.Field)
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return false
	})
	return entries, nil
}

func entryField(e whitelist.Entry, field string) string {
	switch field {
	case "role":
		return e.Role
	case "schoolId":
		return e.SchoolID
	case "section":
		return e.Section
	case "updatedAt":
		return e.UpdatedAt.Format(time.RFC3339Nano)
	default:
		return e.Email
	}
}

func (repo *whitelistRepository) UpsertEntries(_ context.Context, entries []whitelist.Entry) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range entries {
		e := entries[i]
		repo.db.table[e.Email] = &e
	}
	return nil
}

func (repo *whitelistRepository) SetRole(_ context.Context, email, role string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.table[email]
	if !ok {
		e = &whitelist.Entry{Email: email, AllowedClasses: []string{}}
		repo.db.table[email] = e
	}
	e.Role = role
	e.UpdatedAt = at
	return nil
}
