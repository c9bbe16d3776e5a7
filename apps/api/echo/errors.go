package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/assignment"
	"github.com/trezcool/kurswahl/core/operator"
	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "operator not authenticated")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errEmptyUpload        = errors.New("the upload contains no rows")

	// domain errors the client can act upon
	errStatusCodes = map[error]int{
		operator.ErrNotFound:        http.StatusNotFound,
		student.ErrNotFound:         http.StatusNotFound,
		workshop.ErrNotFound:        http.StatusNotFound,
		rule.ErrNotFound:            http.StatusNotFound,
		assignment.ErrSlotNotFound:  http.StatusNotFound,
		assignment.ErrDraftNotFound: http.StatusNotFound,
		operator.ErrInvalidCreds:    http.StatusBadRequest,
		operator.ErrUsernameExists:  http.StatusBadRequest,
		student.ErrExists:           http.StatusBadRequest,
		workshop.ErrExists:          http.StatusBadRequest,
		workshop.ErrNotArchived:     http.StatusBadRequest,
		rule.ErrExists:              http.StatusBadRequest,
		rule.ErrUnknownKind:         http.StatusBadRequest,
		assignment.ErrInvalidKey:    http.StatusBadRequest,
		assignment.ErrNoChoices:     http.StatusBadRequest,
		errEmptyUpload:              http.StatusBadRequest,
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

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
			if fldErrs := origErr.FieldMap(); fldErrs != nil {
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if c, ok := domainErrStatus(origErr); ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var op operator.Operator
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				op.ID = claims.Subject
				op.Username = claims.Username
			}
			logger.Error(msg, errors.Wrap(err, msg), op)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
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

// domainErrStatus returns the status code of a known domain error.
func domainErrStatus(err error) (int, bool) {
	for e, code := range errStatusCodes {
		if err == e {
			return code, true
		}
	}
	return 0, false
}
