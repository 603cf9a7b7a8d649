package firestoredb

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collections
const (
	usersCollection           = "users"
	whitelistCollection       = "whitelist"
	scoresCollection          = "quiz_scores"
	mistakesCollection        = "mistake_notebook"
	summariesCollection       = "ncert_summaries"
	schoolsCollection         = "schools"
	financialEventsCollection = "financial_events"
)

// maxBatchWrites is the Firestore limit on writes in a single batch.
const maxBatchWrites = 500

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// collect decodes every document of `iter` with `decode`.
func collect(iter *firestore.DocumentIterator, decode func(snap *firestore.DocumentSnapshot) error) error {
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		if err = decode(snap); err != nil {
			return err
		}
	}
}

// commitInBatches applies `write` to every ref, committing a new batch every maxBatchWrites writes.
func commitInBatches(ctx context.Context, client *firestore.Client, refs []*firestore.DocumentRef, write func(b *firestore.WriteBatch, i int, ref *firestore.DocumentRef)) error {
	for start := 0; start < len(refs); start += maxBatchWrites {
		end := start + maxBatchWrites
		if end > len(refs) {
			end = len(refs)
		}
		b := client.Batch()
		for i := start; i < end; i++ {
			write(b, i, refs[i])
		}
		if _, err := b.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}
