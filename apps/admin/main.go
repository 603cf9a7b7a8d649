package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/core/whitelist"
	emailsvc "github.com/ready4exam/platform/services/email"
	firebasesvc "github.com/ready4exam/platform/services/firebase"
	logsvc "github.com/ready4exam/platform/services/logger"
	"github.com/ready4exam/platform/storage/database"
	firestoredb "github.com/ready4exam/platform/storage/firestore"
	inmemdb "github.com/ready4exam/platform/storage/inmem"
)

var logger core.Logger

func main() {
	defer os.Exit(0)

	ctx := context.Background()
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up profile storage
	var (
		usrRepo user.Repository
		wlRepo  whitelist.Repository
	)
	switch conf.StorageDriver {
	case "firestore":
		fbApp, err := firebasesvc.NewApp(ctx, conf)
		errAndDie(err)
		client, err := firebasesvc.NewFirestoreClient(ctx, fbApp)
		errAndDie(err)
		defer client.Close()
		usrRepo = firestoredb.NewUserRepository(client)
		wlRepo = firestoredb.NewWhitelistRepository(client)
	default:
		db, err := inmemdb.Open()
		errAndDie(err)
		usrRepo = inmemdb.NewUserRepository(db)
		wlRepo = inmemdb.NewWhitelistRepository(db)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.ParseEmailTemplates(conf, logger)

	wlSvc := whitelist.NewService(wlRepo, nil, mailSvc, validate, conf, logger)
	usrSvc := user.NewService(usrRepo, user.NewResolver(conf, wlSvc, logger), nil, logger)
	wlSvc.SetSuspender(usrSvc)

	cli := commandLine{
		ctx:      ctx,
		conf:     conf,
		usrSvc:   usrSvc,
		wlSvc:    wlSvc,
		validate: validate,
	}

	// set up question bank
	if needsDB(os.Args) {
		errAndDie(database.CreateIfNotExist(ctx, conf))
		db, err := database.Open(ctx, conf)
		errAndDie(err)
		defer db.Close()
		cli.db = db
	}

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
