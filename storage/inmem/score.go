package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ready4exam/platform/core/quiz"
)

type scoreRepository struct {
	db *scoreTable
}

var _ quiz.ScoreRepository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db *DB) *scoreRepository {
	return &scoreRepository{db: db.score}
}

func (repo *scoreRepository) AddScore(_ context.Context, s quiz.Score) (quiz.Score, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.NewString()
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *scoreRepository) QueryScores(_ context.Context, filter quiz.ScoreFilter) ([]quiz.Score, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	scores := make([]quiz.Score, 0)
	for _, s := range repo.db.table {
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if filter.Chapter != "" && s.Chapter != filter.Chapter {
			continue
		}
		if filter.Difficulty != "" && s.Difficulty != filter.Difficulty {
			continue
		}
		if filter.SchoolID != "" && s.SchoolID != filter.SchoolID {
			continue
		}
		if filter.TenantType != "" && s.TenantType != filter.TenantType {
			continue
		}
		scores = append(scores, *s)
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Timestamp.After(scores[j].Timestamp) })
	return scores, nil
}
