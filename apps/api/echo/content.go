package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ready4exam/platform/core/curriculum"
	"github.com/ready4exam/platform/core/demo"
	"github.com/ready4exam/platform/core/mistake"
	"github.com/ready4exam/platform/core/user"
)

type contentApi struct {
	curriculum *curriculum.Loader
	demo       *demo.Fixtures
	mistakeSvc *mistake.Service
	userSvc    *user.Service
}

func registerContentAPI(v1, authed *echo.Group, deps ServerDeps) {
	api := contentApi{
		curriculum: deps.Curriculum,
		demo:       deps.Demo,
		mistakeSvc: deps.MistakeSvc,
		userSvc:    deps.UserSvc,
	}

	// un-authed endpoints
	v1.GET("/demo/:role", api.demoDashboard)

	// authed endpoints
	authed.GET("/curriculum/:grade", api.loadCurriculum)
	authed.GET("/chapters/summary", api.chapterSummary)
}

// Handlers

func (api *contentApi) demoDashboard(ctx echo.Context) error {
	dash, err := api.demo.Dashboard(ctx.Param("role"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *contentApi) loadCurriculum(ctx echo.Context) error {
	c, err := api.curriculum.Load(ctx.Param("grade"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *contentApi) chapterSummary(ctx echo.Context) error {
	grade := ctx.QueryParam("grade")
	if grade == "" {
		usr, err := getContextUser(ctx, api.userSvc)
		if err != nil {
			return err
		}
		grade = usr.ClassID
	}

	s, err := api.mistakeSvc.ChapterSummary(ctx.Request().Context(), grade, ctx.QueryParam("subject"), ctx.QueryParam("chapter"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}
