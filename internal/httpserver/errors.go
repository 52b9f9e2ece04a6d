package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pulak-sarmah/e-com-auth-service/internal/logging"
	"github.com/pulak-sarmah/e-com-auth-service/internal/service"
	"github.com/pulak-sarmah/e-com-auth-service/internal/transport"
)

// statusError pins the HTTP status of err regardless of its kind.
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func withStatus(status int, err error) error {
	return &statusError{status: status, err: err}
}

func statusOf(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func kindOfStatus(status int) service.Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return service.KindValidation
	case http.StatusUnauthorized:
		return service.KindAuthentication
	case http.StatusForbidden:
		return service.KindAuthorization
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return service.KindNotFound
	case http.StatusTooManyRequests:
		return service.KindRateLimited
	default:
		return service.KindInternal
	}
}

// ErrorHandler is the single place where failures become HTTP responses.
// Every body has the shape {"errors":[{type,statusCode,msg,path,location}]}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, items := render(err)

	if status >= 500 {
		logging.FromContext(c.Request().Context()).Error("request_failed", "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, transport.ErrorResponse{Errors: items})
}

func render(err error) (int, []transport.ErrorItem) {
	var (
		svcErr  *service.Error
		httpErr *echo.HTTPError
		pinned  *statusError
	)

	status := 0
	if errors.As(err, &pinned) {
		status = pinned.status
	}

	switch {
	case errors.As(err, &svcErr):
		if status == 0 {
			status = statusOf(svcErr.Kind)
		}
		msg := svcErr.Msg
		if svcErr.Kind == service.KindInternal {
			msg = "Internal server error"
		}
		if len(svcErr.Fields) == 0 {
			return status, []transport.ErrorItem{{Type: svcErr.Kind.String(), StatusCode: status, Msg: msg}}
		}
		items := make([]transport.ErrorItem, 0, len(svcErr.Fields))
		for _, f := range svcErr.Fields {
			items = append(items, transport.ErrorItem{
				Type:       svcErr.Kind.String(),
				StatusCode: status,
				Msg:        f.Msg,
				Path:       f.Field,
				Location:   "body",
			})
		}
		return status, items

	case errors.As(err, &httpErr):
		if status == 0 {
			status = httpErr.Code
		}
		msg := http.StatusText(status)
		if m, ok := httpErr.Message.(string); ok && m != "" {
			msg = m
		}
		if status >= 500 {
			msg = "Internal server error"
		}
		return status, []transport.ErrorItem{{Type: kindOfStatus(status).String(), StatusCode: status, Msg: msg}}

	default:
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, []transport.ErrorItem{{Type: kindOfStatus(status).String(), StatusCode: status, Msg: "Internal server error"}}
	}
}
