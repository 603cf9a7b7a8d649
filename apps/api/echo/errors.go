package echoapi

import (
	stderrors "errors"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/curriculum"
	"github.com/ready4exam/platform/core/demo"
	"github.com/ready4exam/platform/core/governance"
	"github.com/ready4exam/platform/core/mistake"
	"github.com/ready4exam/platform/core/quiz"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/core/whitelist"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountSuspended     = echo.NewHTTPError(http.StatusForbidden, "account suspended")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// domainErrors maps the sentinel errors of the core packages to their HTTP responses.
var domainErrors = []struct {
	target  error
	code    int
	message string // "" -> the error's own message
}{
	{user.ErrNotFound, http.StatusNotFound, ""},
	{whitelist.ErrNotFound, http.StatusNotFound, ""},
	{mistake.ErrSummaryNotFound, http.StatusNotFound, ""},
	{curriculum.ErrGradeNotFound, http.StatusNotFound, ""},
	{quiz.ErrNoQuestions, http.StatusNotFound, ""},
	{demo.ErrUnknownRole, http.StatusNotFound, ""},
	{user.ErrAuthenticationFailed, http.StatusBadRequest, "authentication failed"},
	{user.ErrSuspended, http.StatusForbidden, "account suspended"},
	{user.ErrRoleMismatch, http.StatusForbidden, ""},
	{user.ErrMissingSchool, http.StatusForbidden, ""},
	{whitelist.ErrForbiddenSchool, http.StatusForbidden, ""},
	{whitelist.ErrUnsupportedFile, http.StatusBadRequest, ""},
	{governance.ErrSchoolRequired, http.StatusBadRequest, ""},
	{user.ErrProfileTimeout, http.StatusGatewayTimeout, ""},
}

func domainHTTPError(err error) (*echo.HTTPError, bool) {
	for _, de := range domainErrors {
		if !stderrors.Is(err, de.target) {
			continue
		}
		msg := de.message
		if msg == "" {
			msg = errors.Cause(err).Error()
		}
		return echo.NewHTTPError(de.code, msg), true
	}
	return nil, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		if herr, ok := domainHTTPError(err); ok {
			err = herr
		}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.UID = claims.Subject
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
