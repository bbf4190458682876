package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/session"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/teacher"
	"github.com/trezcool/gradebook/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errTokenRevoked         = echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// httpError maps domain errors to their HTTP counterpart; nil when err is not one of them.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, student.ErrNotFound), errors.Is(err, teacher.ErrNotFound), errors.Is(err, user.ErrNotFound):
		return errHttpNotFound
	case errors.Is(err, session.ErrInvalidCredentials):
		return errAuthenticationFailed
	case errors.Is(err, session.ErrAccountDisabled):
		return errAccountDeactivated
	case errors.Is(err, session.ErrMissingCredentials):
		return echo.NewHTTPError(http.StatusBadRequest, session.ErrMissingCredentials.Error())
	case errors.Is(err, session.ErrNotAuthenticated):
		return errUnauthorized
	}
	return nil
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var cause error = errors.Cause(err)
		if herr := httpError(err); herr != nil {
			cause = herr
		}

		switch origErr := cause.(type) {
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
		case validator.ValidationErrors, *core.ValidationError:
			code = http.StatusBadRequest
			message = validationMessage(origErr, translator)
		case *core.RemoteError:
			code = http.StatusBadGateway
			message = origErr.Op + " failed"
			logger.Error(origErr.Error(), err, contextPrincipal(ctx))
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), contextPrincipal(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
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

// validationMessage returns the {field: error} map of a validation error, or its message when it has no fields.
func validationMessage(err error, translator ut.Translator) interface{} {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Translate(translator)
		}
		return fldErrs
	case *core.ValidationError:
		if origErr.Fields != nil {
			fldErrs := make(map[string]string, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			return fldErrs
		}
		return origErr.Error()
	}
	return err.Error()
}

func contextPrincipal(ctx echo.Context) session.Principal {
	if claims, err := getContextClaims(ctx); err == nil {
		return claims.Principal()
	}
	return session.Principal{}
}
