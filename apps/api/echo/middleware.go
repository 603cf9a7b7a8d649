package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core/user"
)

// activeUserMiddleware loads the profile behind the token and turns suspended accounts away.
func activeUserMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			if usr.IsSuspended() {
				return errAccountSuspended
			}
			return next(ctx)
		}
	}
}

// roleMiddleware lets through the given roles. The owner always passes.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, ok := ctx.Get(contextUserKey).(user.User)
			if !ok {
				return errUnauthorized
			}
			if usr.IsOwner() {
				return next(ctx)
			}
			for _, role := range roles {
				if usr.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// schoolScopeMiddleware keeps school staff inside their own school (":school_id" path param).
func schoolScopeMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, ok := ctx.Get(contextUserKey).(user.User)
		if !ok {
			return errors.Wrap(errUnauthorized, "school scope")
		}
		if usr.IsOwner() {
			return next(ctx)
		}
		if usr.SchoolID == "" || usr.SchoolID != ctx.Param("school_id") {
			return errHttpForbidden
		}
		return next(ctx)
	}
}
