package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core/mistake"
	"github.com/ready4exam/platform/core/quiz"
	"github.com/ready4exam/platform/core/user"
)

type quizApi struct {
	quizSvc    *quiz.Service
	mistakeSvc *mistake.Service
	userSvc    *user.Service
}

func registerQuizAPI(authed *echo.Group, deps ServerDeps) {
	api := quizApi{
		quizSvc:    deps.QuizSvc,
		mistakeSvc: deps.MistakeSvc,
		userSvc:    deps.UserSvc,
	}

	qg := authed.Group("/quiz")
	qg.GET("/questions", api.questions)
	qg.POST("/results", api.saveResult)
	qg.POST("/mistakes", api.saveMistakes)
	qg.GET("/mastery", api.mastery)
	qg.GET("/attempts", api.attempts)

	authed.GET("/mistakes", api.notebook)
}

// Handlers

// questions serves ?topic=a,b (or repeated topic params). More than one topic is a mixed quiz.
func (api *quizApi) questions(ctx echo.Context) error {
	topics := ctx.QueryParams()["topic"]
	qs, err := api.quizSvc.FetchQuestions(ctx.Request().Context(), topics, ctx.QueryParam("difficulty"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qs)
}

func (api *quizApi) saveResult(ctx echo.Context) error {
	var data quiz.ResultInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResultInput")
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	s, err := api.quizSvc.SaveResult(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *quizApi) saveMistakes(ctx echo.Context) error {
	var data mistake.SaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRequest")
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	if data.ClassID == "" {
		data.ClassID = usr.ClassID
	}

	entry, saved, err := api.mistakeSvc.SaveMistakes(ctx.Request().Context(), usr.UID, data)
	if err != nil {
		return err
	}
	if !saved {
		return ctx.JSON(http.StatusOK, SaveMistakesResponse{Saved: false})
	}
	return ctx.JSON(http.StatusCreated, SaveMistakesResponse{Saved: true, Entry: &entry})
}

func (api *quizApi) mastery(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.quizSvc.Mastery(ctx.Request().Context(), usr, ctx.QueryParam("topic")))
}

func (api *quizApi) attempts(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.quizSvc.Attempts(ctx.Request().Context(), usr.UID))
}

func (api *quizApi) notebook(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	nb, err := api.mistakeSvc.Notebook(ctx.Request().Context(), usr, ctx.QueryParam("grade"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, nb)
}

type SaveMistakesResponse struct {
	Saved bool           `json:"saved"`
	Entry *mistake.Entry `json:"entry,omitempty"`
}
