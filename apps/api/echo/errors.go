package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
)

const (
	msgMethodNotAllowed = "Method not allowed"
	msgConflict         = "One or more roll numbers are already registered."
	msgClosed           = "Registration is closed"
	msgEventNotFound    = "Event not found"
	msgSaveFailed       = "Failed to save submission"
	msgQRUnavailable    = "Unable to load payment QR"
)

var (
	errUnauthorized     = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errMethodNotAllowed = echo.NewHTTPError(http.StatusMethodNotAllowed, msgMethodNotAllowed)
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Conflicts []string          `json:"conflicts,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var body errorBody

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				body.Message = fmt.Sprint(origErr.Message)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body.Message = fmt.Sprint(origErr.Message)
			switch {
			case code == http.StatusMethodNotAllowed:
				body.Message = msgMethodNotAllowed
			case code >= http.StatusInternalServerError:
				logger.Error(body.Message, errors.Wrap(err, body.Message), contextPerson(ctx))
			}
		case validator.ValidationErrors:
			body.Fields = make(map[string]string, len(origErr))
			names := make([]string, 0, len(origErr))
			for _, vErr := range origErr {
				body.Fields[vErr.Field()] = vErr.Translate(translator)
				names = append(names, vErr.Field())
			}
			code = http.StatusBadRequest
			body.Message = "Invalid fields: " + strings.Join(names, ", ")
		case *core.ValidationError:
			if origErr.Fields != nil {
				body.Fields = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					body.Fields[fErr.Field] = fErr.Error
				}
			}
			code = http.StatusBadRequest
			body.Message = origErr.Error()
		case *core.InvalidEncodingError:
			code = http.StatusBadRequest
			body.Message = origErr.Error()
		case *core.ConflictError:
			code = http.StatusConflict
			body.Message = msgConflict
			body.Conflicts = origErr.Rolls
		case *core.ClosedError:
			code = http.StatusForbidden
			body.Message = msgClosed
		default:
			if origErr == registration.ErrEventNotFound {
				code = http.StatusNotFound
				body.Message = msgEventNotFound
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			body.Message = http.StatusText(code)
			if ctx.Request().Method == http.MethodPost {
				body.Message = msgSaveFailed
			}
			logger.Error(body.Message, errors.Wrap(err, body.Message), contextPerson(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
