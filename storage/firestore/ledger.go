package firestoredb

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core/governance"
)

type ledgerRepository struct {
	client *firestore.Client
}

var _ governance.LedgerRepository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(client *firestore.Client) *ledgerRepository {
	return &ledgerRepository{client: client}
}

func (repo *ledgerRepository) col(schoolID string) *firestore.CollectionRef {
	return repo.client.Collection(schoolsCollection).Doc(schoolID).Collection(financialEventsCollection)
}

func (repo *ledgerRepository) AddFinancialEvent(ctx context.Context, ev governance.FinancialEvent) (governance.FinancialEvent, error) {
	ref, _, err := repo.col(ev.SchoolID).Add(ctx, ev)
	if err != nil {
		return governance.FinancialEvent{}, errors.Wrap(err, "adding financial event")
	}
	ev.ID = ref.ID
	return ev, nil
}

func (repo *ledgerRepository) QueryFinancialEvents(ctx context.Context, schoolID string) ([]governance.FinancialEvent, error) {
	events := make([]governance.FinancialEvent, 0)
	err := collect(repo.col(schoolID).OrderBy("timestamp", firestore.Desc).Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		var ev governance.FinancialEvent
		if err := snap.DataTo(&ev); err != nil {
			return errors.Wrapf(err, "decoding financial event %s", snap.Ref.ID)
		}
		ev.ID = snap.Ref.ID
		ev.SchoolID = schoolID
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying financial events")
	}
	return events, nil
}
