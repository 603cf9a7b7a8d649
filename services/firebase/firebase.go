package firebasesvc

import (
	"context"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
)

func NewApp(ctx context.Context, conf *core.Config) (*firebase.App, error) {
	opts := make([]option.ClientOption, 0)
	if conf.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Firebase.CredentialsFile))
	}

	appConf := &firebase.Config{}
	if conf.Firebase.ProjectID != "" {
		appConf.ProjectID = conf.Firebase.ProjectID
	}
	app, err := firebase.NewApp(ctx, appConf, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase")
	}
	return app, nil
}

func NewFirestoreClient(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "opening firestore")
	}
	return client, nil
}

// TokenVerifier turns Firebase ID tokens into verified identities.
type TokenVerifier struct {
	client *auth.Client
}

func NewVerifier(ctx context.Context, app *firebase.App) (*TokenVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "opening firebase auth")
	}
	return &TokenVerifier{client: client}, nil
}

// Verify checks a Firebase ID token. Any failure is reported as user.ErrAuthenticationFailed.
func (v *TokenVerifier) Verify(ctx context.Context, idToken string) (user.Identity, error) {
	if idToken == "" {
		return user.Identity{}, user.ErrAuthenticationFailed
	}
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return user.Identity{}, errors.Wrap(user.ErrAuthenticationFailed, err.Error())
	}

	id := user.Identity{UID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		id.Email = core.CleanString(email, true /* lower */)
	}
	if name, ok := tok.Claims["name"].(string); ok {
		id.DisplayName = name
	}
	return id, nil
}
