package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/ready4exam/platform/apps/api/echo"
	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/curriculum"
	"github.com/ready4exam/platform/core/demo"
	"github.com/ready4exam/platform/core/governance"
	"github.com/ready4exam/platform/core/mistake"
	"github.com/ready4exam/platform/core/quiz"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/core/whitelist"
	appfs "github.com/ready4exam/platform/fs"
	emailsvc "github.com/ready4exam/platform/services/email"
	firebasesvc "github.com/ready4exam/platform/services/firebase"
	logsvc "github.com/ready4exam/platform/services/logger"
	metricsvc "github.com/ready4exam/platform/services/metrics"
)

type repositories struct {
	users     user.Repository
	whitelist whitelist.Repository
	scores    quiz.ScoreRepository
	mistakes  mistake.Repository
	summaries mistake.SummaryRepository
	ledger    governance.LedgerRepository
	bank      quiz.QuestionBank
	closers   []io.Closer
}

func (r *repositories) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i].Close()
	}
}

// rejectAll stands in for Firebase Auth when it could not be set up (local inmem runs).
type rejectAll struct{}

func (rejectAll) Verify(context.Context, string) (user.Identity, error) {
	return user.Identity{}, user.ErrAuthenticationFailed
}

func main() {
	// =========================================================================
	// Set up Dependencies

	ctx := context.Background()
	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up firebase
	var verifier echoapi.IdentityVerifier = rejectAll{}
	fbApp, err := firebasesvc.NewApp(ctx, conf)
	if err == nil {
		if v, vErr := firebasesvc.NewVerifier(ctx, fbApp); vErr == nil {
			verifier = v
		} else {
			err = vErr
		}
	}
	if err != nil {
		if conf.StorageDriver != "inmem" {
			logger.Fatal(fmt.Sprintf("setting up firebase: %v", err), err)
		}
		logger.Warn(fmt.Sprintf("firebase unavailable, sign-in disabled: %v", err), err)
	}

	// set up storage
	repos, err := setUpStorage(ctx, conf, fbApp, dbLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer repos.Close()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	recorder := metricsvc.NewRecorder("ready4exam")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	wlSvc := whitelist.NewService(repos.whitelist, nil, mailSvc, validate, conf, logger)
	usrSvc := user.NewService(repos.users, user.NewResolver(conf, wlSvc, logger), recorder, logger)
	wlSvc.SetSuspender(usrSvc)
	quizSvc := quiz.NewService(repos.bank, repos.scores, recorder, validate, conf, logger)
	mistakeSvc := mistake.NewService(repos.mistakes, repos.summaries, validate, conf, logger)
	govSvc := governance.NewService(repos.ledger, usrSvc, quizSvc, validate, conf, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q (%s storage)", conf.Build, conf.StorageDriver))
	defer logger.Info("Application stopped")

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.StorageDriver)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		Verifier:      verifier,
		UserSvc:       usrSvc,
		WhitelistSvc:  wlSvc,
		QuizSvc:       quizSvc,
		MistakeSvc:    mistakeSvc,
		GovernanceSvc: govSvc,
		Curriculum:    curriculum.NewLoader(appfs.FS, "curriculum"),
		Demo:          demo.NewFixtures(appfs.FS, "demo/dashboard.json"),
		Metrics:       recorder.Handler(),
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
