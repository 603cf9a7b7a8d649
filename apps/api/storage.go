package main

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
	firebasesvc "github.com/ready4exam/platform/services/firebase"
	"github.com/ready4exam/platform/storage/cache"
	"github.com/ready4exam/platform/storage/database"
	firestoredb "github.com/ready4exam/platform/storage/firestore"
	inmemdb "github.com/ready4exam/platform/storage/inmem"
)

// setUpStorage opens the document store picked by conf.StorageDriver and the question bank.
func setUpStorage(ctx context.Context, conf *core.Config, fbApp *firebase.App, logger core.Logger) (*repositories, error) {
	repos := new(repositories)

	switch conf.StorageDriver {
	case "inmem":
		db, err := inmemdb.Open()
		if err != nil {
			return nil, err
		}
		repos.users = inmemdb.NewUserRepository(db)
		repos.whitelist = inmemdb.NewWhitelistRepository(db)
		repos.scores = inmemdb.NewScoreRepository(db)
		repos.mistakes = inmemdb.NewMistakeRepository(db)
		repos.summaries = inmemdb.NewSummaryRepository(db)
		repos.ledger = inmemdb.NewLedgerRepository(db)
		repos.bank = inmemdb.NewQuestionBank()
		return repos, nil

	case "firestore":
		if fbApp == nil {
			return nil, errors.New("firestore storage needs firebase")
		}
		client, err := firebasesvc.NewFirestoreClient(ctx, fbApp)
		if err != nil {
			return nil, err
		}
		repos.closers = append(repos.closers, client)
		repos.users = firestoredb.NewUserRepository(client)
		repos.whitelist = firestoredb.NewWhitelistRepository(client)
		repos.scores = firestoredb.NewScoreRepository(client)
		repos.mistakes = firestoredb.NewMistakeRepository(client)
		repos.summaries = firestoredb.NewSummaryRepository(client)
		repos.ledger = firestoredb.NewLedgerRepository(client)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.StorageDriver)
	}

	// question bank
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		repos.Close()
		return nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		repos.Close()
		return nil, err
	}
	repos.closers = append(repos.closers, db)
	if err = database.Migrate(db.DB); err != nil {
		repos.Close()
		return nil, err
	}
	repos.bank = database.NewQuestionBank(db)

	rdb, err := cache.Open(ctx, conf)
	if err != nil {
		logger.Warn(fmt.Sprintf("question cache disabled: %v", err), err)
	} else if rdb != nil {
		repos.closers = append(repos.closers, rdb)
		repos.bank = cache.NewQuestionCache(repos.bank, rdb, conf.Redis.TTL, logger)
	}
	return repos, nil
}
