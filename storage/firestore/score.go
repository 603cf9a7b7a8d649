package firestoredb

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core/quiz"
)

type scoreRepository struct {
	client *firestore.Client
}

var _ quiz.ScoreRepository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(client *firestore.Client) *scoreRepository {
	return &scoreRepository{client: client}
}

func (repo *scoreRepository) AddScore(ctx context.Context, s quiz.Score) (quiz.Score, error) {
	ref, _, err := repo.client.Collection(scoresCollection).Add(ctx, s)
	if err != nil {
		return quiz.Score{}, errors.Wrap(err, "adding score")
	}
	s.ID = ref.ID
	return s, nil
}

func (repo *scoreRepository) QueryScores(ctx context.Context, filter quiz.ScoreFilter) ([]quiz.Score, error) {
	q := repo.client.Collection(scoresCollection).Query
	for _, w := range []struct{ path, val string }{
		{"user_id", filter.UserID},
		{"chapter", filter.Chapter},
		{"difficulty", filter.Difficulty},
		{"school_id", filter.SchoolID},
		{"tenantType", filter.TenantType},
	} {
		if w.val != "" {
			q = q.Where(w.path, "==", w.val)
		}
	}
	q = q.OrderBy("timestamp", firestore.Desc)

	scores := make([]quiz.Score, 0)
	err := collect(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		var s quiz.Score
		if err := snap.DataTo(&s); err != nil {
			return errors.Wrapf(err, "decoding score %s", snap.Ref.ID)
		}
		s.ID = snap.Ref.ID
		scores = append(scores, s)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying scores")
	}
	return scores, nil
}
