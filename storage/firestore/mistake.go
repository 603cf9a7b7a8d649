package firestoredb

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core/mistake"
)

type mistakeRepository struct {
	client *firestore.Client
}

var _ mistake.Repository = (*mistakeRepository)(nil) // interface compliance check

func NewMistakeRepository(client *firestore.Client) *mistakeRepository {
	return &mistakeRepository{client: client}
}

func (repo *mistakeRepository) AddEntry(ctx context.Context, e mistake.Entry) (mistake.Entry, error) {
	ref, _, err := repo.client.Collection(mistakesCollection).Add(ctx, e)
	if err != nil {
		return mistake.Entry{}, errors.Wrap(err, "adding mistake entry")
	}
	e.ID = ref.ID
	return e, nil
}

func (repo *mistakeRepository) QueryEntries(ctx context.Context, uid string) ([]mistake.Entry, error) {
	q := repo.client.Collection(mistakesCollection).
		Where("user_id", "==", uid).
		OrderBy("timestamp", firestore.Desc)

	entries := make([]mistake.Entry, 0)
	err := collect(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		var e mistake.Entry
		if err := snap.DataTo(&e); err != nil {
			return errors.Wrapf(err, "decoding mistake entry %s", snap.Ref.ID)
		}
		e.ID = snap.Ref.ID
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying mistake notebook")
	}
	return entries, nil
}

type summaryRepository struct {
	client *firestore.Client
}

var _ mistake.SummaryRepository = (*summaryRepository)(nil) // interface compliance check

func NewSummaryRepository(client *firestore.Client) *summaryRepository {
	return &summaryRepository{client: client}
}

func (repo *summaryRepository) GetSummary(ctx context.Context, id string) (mistake.Summary, error) {
	if id == "" {
		return mistake.Summary{}, mistake.ErrSummaryNotFound
	}
	snap, err := repo.client.Collection(summariesCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return mistake.Summary{}, mistake.ErrSummaryNotFound
		}
		return mistake.Summary{}, errors.Wrap(err, "getting chapter summary")
	}

	var s mistake.Summary
	if err = snap.DataTo(&s); err != nil {
		return mistake.Summary{}, errors.Wrapf(err, "decoding chapter summary %s", id)
	}
	s.ID = snap.Ref.ID
	return s, nil
}
