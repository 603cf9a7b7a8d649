package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core/governance"
	"github.com/ready4exam/platform/core/user"
)

type governanceApi struct {
	svc     *governance.Service
	userSvc *user.Service
}

func registerGovernanceAPI(authed *echo.Group, deps ServerDeps) {
	api := governanceApi{
		svc:     deps.GovernanceSvc,
		userSvc: deps.UserSvc,
	}

	sg := authed.Group("/schools/:school_id")
	sg.GET("/analytics", api.schoolAnalytics, roleMiddleware(user.RolePrincipal, user.RoleAdmin), schoolScopeMiddleware)
	sg.GET("/financial-events", api.financialEvents, roleMiddleware(user.RoleOwner))
	sg.POST("/financial-events", api.recordFinancialEvent, roleMiddleware(user.RoleOwner))

	og := authed.Group("/owner", roleMiddleware(user.RoleOwner))
	og.GET("/individual-users", api.individualUsers)
}

// Handlers

func (api *governanceApi) schoolAnalytics(ctx echo.Context) error {
	res, err := api.svc.SchoolAnalytics(ctx.Request().Context(), ctx.Param("school_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *governanceApi) financialEvents(ctx echo.Context) error {
	events, err := api.svc.FinancialEvents(ctx.Request().Context(), ctx.Param("school_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *governanceApi) recordFinancialEvent(ctx echo.Context) error {
	var data governance.NewFinancialEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFinancialEvent")
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	ev, err := api.svc.RecordFinancialEvent(ctx.Request().Context(), ctx.Param("school_id"), data, actor.Email)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *governanceApi) individualUsers(ctx echo.Context) error {
	rows, err := api.svc.IndividualUsers(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rows)
}
