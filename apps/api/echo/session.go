package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
)

type authApi struct {
	conf     *core.Config
	verifier IdentityVerifier
	svc      *user.Service
	validate *validator.Validate
}

func registerAuthAPI(v1, authed *echo.Group, deps ServerDeps) {
	api := authApi{
		conf:     deps.Conf,
		verifier: deps.Verifier,
		svc:      deps.UserSvc,
		validate: deps.Validate,
	}

	// un-authed endpoints
	ag := v1.Group("/auth")
	ag.POST("/session", api.session)
	ag.POST("/login", api.login)

	// authed endpoints
	authed.POST("/auth/token-refresh", api.refreshToken)
}

// Handlers

// session exchanges a Firebase ID token for an app token, creating the profile on first sign-in.
func (api *authApi) session(ctx echo.Context) error {
	var data SessionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	id, err := api.verifier.Verify(rctx, data.IDToken)
	if err != nil {
		return err
	}

	usr, _, err := api.svc.EnsureProfile(rctx, id)
	if err != nil {
		return errors.Wrap(err, "ensuring profile")
	}
	if usr.Role == "" {
		if usr, err = api.svc.WaitForProfile(rctx, id.UID); err != nil {
			return err
		}
	}
	if usr.IsSuspended() {
		return errAccountSuspended
	}
	return api.respond(ctx, usr)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return err
	}
	return api.respond(ctx, usr)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *authApi) respond(ctx echo.Context, usr user.User) error {
	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{
		Token:   token,
		Route:   user.Route(usr),
		Profile: usr,
	})
}

type (
	SessionRequest struct {
		IDToken string `json:"id_token" validate:"required"`
	}

	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	SessionResponse struct {
		Token   string    `json:"token"`
		Route   string    `json:"route"`
		Profile user.User `json:"profile"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (sr *SessionRequest) Validate(validate *validator.Validate) error {
	sr.IDToken = core.CleanString(sr.IDToken)
	return validate.Struct(sr)
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
