package firestoredb

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/whitelist"
)

type whitelistRepository struct {
	client *firestore.Client
}

var _ whitelist.Repository = (*whitelistRepository)(nil) // interface compliance check

func NewWhitelistRepository(client *firestore.Client) *whitelistRepository {
	return &whitelistRepository{client: client}
}

func (repo *whitelistRepository) col() *firestore.CollectionRef {
	return repo.client.Collection(whitelistCollection)
}

func (repo *whitelistRepository) GetEntry(ctx context.Context, email string) (whitelist.Entry, error) {
	if email == "" {
		return whitelist.Entry{}, whitelist.ErrNotFound
	}
	snap, err := repo.col().Doc(email).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return whitelist.Entry{}, whitelist.ErrNotFound
		}
		return whitelist.Entry{}, errors.Wrap(err, "getting whitelist entry")
	}
	return decodeEntry(snap)
}

func decodeEntry(snap *firestore.DocumentSnapshot) (whitelist.Entry, error) {
	var e whitelist.Entry
	if err := snap.DataTo(&e); err != nil {
		return whitelist.Entry{}, errors.Wrapf(err, "decoding whitelist entry %s", snap.Ref.ID)
	}
	if e.Email == "" {
		e.Email = snap.Ref.ID
	}
	return e, nil
}

func (repo *whitelistRepository) QueryEntries(ctx context.Context, schoolID string, orderings ...core.DBOrdering) ([]whitelist.Entry, error) {
	q := repo.col().Query
	if schoolID != "" {
		q = q.Where("schoolId", "==", schoolID)
	}
	for _, ord := range orderings {
		dir := firestore.Desc
		if ord.Ascending {
			dir = firestore.Asc
		}
		q = q.OrderBy(ord.Field, dir)
	}

	entries := make([]whitelist.Entry, 0)
	err := collect(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		e, err := decodeEntry(snap)
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying whitelist")
	}
	return entries, nil
}

func (repo *whitelistRepository) UpsertEntries(ctx context.Context, entries []whitelist.Entry) error {
	refs := make([]*firestore.DocumentRef, len(entries))
	for i, e := range entries {
		refs[i] = repo.col().Doc(e.Email)
	}
	err := commitInBatches(ctx, repo.client, refs, func(b *firestore.WriteBatch, i int, ref *firestore.DocumentRef) {
		e := entries[i]
		b.Set(ref, map[string]interface{}{
			"email":          e.Email,
			"role":           e.Role,
			"schoolId":       e.SchoolID,
			"section":        e.Section,
			"allowedClasses": e.AllowedClasses,
			"updatedAt":      e.UpdatedAt,
		}, firestore.MergeAll)
	})
	return errors.Wrap(err, "saving whitelist entries")
}

func (repo *whitelistRepository) SetRole(ctx context.Context, email, role string, at time.Time) error {
	_, err := repo.col().Doc(email).Set(ctx, map[string]interface{}{
		"email":     email,
		"role":      role,
		"updatedAt": at,
	}, firestore.MergeAll)
	return errors.Wrap(err, "setting whitelist role")
}
