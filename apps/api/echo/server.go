package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/curriculum"
	"github.com/ready4exam/platform/core/demo"
	"github.com/ready4exam/platform/core/governance"
	"github.com/ready4exam/platform/core/mistake"
	"github.com/ready4exam/platform/core/quiz"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/core/whitelist"
)

type (
	// IdentityVerifier turns a client credential (Firebase ID token) into a verified identity.
	IdentityVerifier interface {
		Verify(ctx context.Context, idToken string) (user.Identity, error)
	}

	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		Verifier       IdentityVerifier
		UserSvc        *user.Service
		WhitelistSvc   *whitelist.Service
		QuizSvc        *quiz.Service
		MistakeSvc     *mistake.Service
		GovernanceSvc  *governance.Service
		Curriculum     *curriculum.Loader
		Demo           *demo.Fixtures
		Metrics        http.Handler
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		jwtConf  middleware.JWTConfig
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		jwtConf:  newJWTConfig(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics))
	}

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.jwtConf)
	authed := v1.Group("", jwt, activeUserMiddleware(s.deps.UserSvc))

	registerAuthAPI(v1, authed, s.deps)
	registerProfileAPI(authed, s.deps)
	registerContentAPI(v1, authed, s.deps)
	registerQuizAPI(authed, s.deps)
	registerWhitelistAPI(authed, s.deps)
	registerGovernanceAPI(authed, s.deps)
}

// Start listens on the configured address. Failures are reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Ready4Exam API!")
}
