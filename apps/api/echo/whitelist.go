package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/core/whitelist"
)

var errNoEntries = "at least one entry is required"

type whitelistApi struct {
	svc     *whitelist.Service
	userSvc *user.Service
}

func registerWhitelistAPI(authed *echo.Group, deps ServerDeps) {
	api := whitelistApi{
		svc:     deps.WhitelistSvc,
		userSvc: deps.UserSvc,
	}

	wg := authed.Group("/whitelist", roleMiddleware(user.RoleAdmin))
	wg.GET("", api.query)
	wg.POST("", api.onboard)
	wg.POST("/import", api.importFile)
	wg.DELETE("/:email", api.revoke)
}

// Handlers

func (api *whitelistApi) query(ctx echo.Context) error {
	var ord Ordering
	if err := ord.Bind(ctx, whitelistOrderings...); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	entries, err := api.svc.List(ctx.Request().Context(), actor, ctx.QueryParam("school_id"), ord.Orderings...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *whitelistApi) onboard(ctx echo.Context) error {
	var data whitelist.OnboardRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OnboardRequest")
	}
	return api.doOnboard(ctx, data.SchoolID, data.Entries)
}

// importFile onboards the rows of an uploaded .csv or .xlsx sheet (multipart field "file").
func (api *whitelistApi) importFile(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	entries, err := whitelist.Parse(fh.Filename, f)
	if err != nil {
		return err
	}
	return api.doOnboard(ctx, ctx.FormValue("school_id"), entries)
}

func (api *whitelistApi) doOnboard(ctx echo.Context, schoolID string, entries []whitelist.NewEntry) error {
	if len(entries) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "entries", Error: errNoEntries})
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	res, err := api.svc.Onboard(ctx.Request().Context(), actor, schoolID, entries)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *whitelistApi) revoke(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	res, err := api.svc.Revoke(ctx.Request().Context(), actor, ctx.Param("email"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
