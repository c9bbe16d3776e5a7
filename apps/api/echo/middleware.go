package echoapi

import (
	"net/url"

	"github.com/labstack/echo/v4"
)

// activeOperatorMiddleware loads the authenticated operator and rejects deactivated accounts.
func activeOperatorMiddleware(a *tokenAuth) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			op, err := a.contextOperator(ctx)
			if err != nil {
				return err
			}
			if !op.IsActive {
				return errAccountDeactivated
			}
			return next(ctx)
		}
	}
}

// pathParam returns the decoded path parameter; names may contain spaces.
func pathParam(ctx echo.Context, name string) string {
	val := ctx.Param(name)
	if unescaped, err := url.PathUnescape(val); err == nil {
		return unescaped
	}
	return val
}
