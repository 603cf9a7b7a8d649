package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/services/logger"
)

// NewLogger returns a silent logger (Rollbar is disabled in test mode).
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// CreateUser stores a profile, filling in the timestamps and paid classes when unset.
func CreateUser(t *testing.T, repo user.Repository, usr user.User, pwd ...string) user.User {
	tstamp := time.Now().UTC()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = tstamp
	}
	if usr.LastLogin.IsZero() {
		usr.LastLogin = tstamp
	}
	if usr.PaidClasses == nil {
		usr.PaidClasses = user.NewPaidClasses(usr.ClassID)
	}
	if len(pwd) > 0 && pwd[0] != "" {
		if err := usr.SetPassword(pwd[0]); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

// StubVerifier accepts the ID tokens it knows.
type StubVerifier map[string]user.Identity

func (v StubVerifier) Verify(_ context.Context, idToken string) (user.Identity, error) {
	if id, ok := v[idToken]; ok {
		return id, nil
	}
	return user.Identity{}, errors.Wrap(user.ErrAuthenticationFailed, "verifying ID token")
}
