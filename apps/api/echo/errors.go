package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errRefreshExpired = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden  = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound   = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// errorResponse maps the errors services and middlewares return to a status and body.
// ok is false for unexpected errors.
func errorResponse(err error) (code int, message interface{}, ok bool) {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, origErr.Message, true
		}
		if herr, isHTTP := origErr.Internal.(*echo.HTTPError); isHTTP {
			return herr.Code, herr.Message, true
		}
		return origErr.Code, origErr.Message, true
	case *core.ValidationError:
		if len(origErr.Fields) == 0 {
			return http.StatusBadRequest, origErr.Error(), true
		}
		fldErrs := make(map[string]string, len(origErr.Fields))
		for _, fErr := range origErr.Fields {
			fldErrs[fErr.Field] = fErr.Error
		}
		return http.StatusBadRequest, fldErrs, true
	case *core.AuthError:
		return http.StatusUnauthorized, origErr.Error(), true
	case *core.NotFoundError:
		return http.StatusNotFound, origErr.Error(), true
	case *core.ConflictError:
		return http.StatusConflict, origErr.Error(), true
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), false
}

// logServerError reports err along with the request and, when authenticated, the acting user.
func logServerError(logger core.Logger, ctx echo.Context, err error) {
	msg := http.StatusText(http.StatusInternalServerError)
	args := []interface{}{errors.Wrap(err, msg), map[string]interface{}{
		"request_id": ctx.Response().Header().Get(echo.HeaderXRequestID),
		"method":     ctx.Request().Method,
		"path":       ctx.Request().URL.Path,
	}}
	if claims, cErr := getContextClaims(ctx); cErr == nil {
		if usr, uErr := claims.User(); uErr == nil {
			args = append(args, usr)
		}
	}
	logger.Error(msg, args...)
}

// newAppHTTPErrorHandler returns the echo.HTTPErrorHandler of the API.
// signalShutdown is called whenever a core shutdown error reaches it.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message, ok := errorResponse(err)
		if !ok {
			logServerError(logger, ctx, err)
			if ctx.Echo().Debug {
				message = err.Error()
			}
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}
		if m, isStr := message.(string); isStr {
			message = echo.Map{"error": m}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
