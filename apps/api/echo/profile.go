package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ready4exam/platform/core/user"
)

type profileApi struct {
	svc *user.Service
}

func registerProfileAPI(authed *echo.Group, deps ServerDeps) {
	api := profileApi{svc: deps.UserSvc}

	authed.GET("/profile", api.retrieve)
	authed.GET("/consoles/:role", api.console)
	authed.GET("/roles", api.queryRoles)
}

// Handlers

func (api *profileApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

// console is the page guard of the role consoles.
func (api *profileApi) console(ctx echo.Context) error {
	role := ctx.Param("role")
	if !user.IsRole(role) || role == user.RoleSuspended {
		return errHttpNotFound
	}

	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}
	if err = user.Guard(usr, role); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ConsoleResponse{Profile: usr, Route: user.Route(usr)})
}

func (api *profileApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

type ConsoleResponse struct {
	Profile user.User `json:"profile"`
	Route   string    `json:"route"`
}
