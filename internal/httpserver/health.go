package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pulak-sarmah/e-com-auth-service/internal/tokens"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentHealth struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type HealthResponse struct {
	Status     Status                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Check tests one dependency; a nil error means healthy.
type Check func(ctx context.Context) error

type HealthHTTP struct {
	Checks  map[string]Check
	Timeout time.Duration
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready answers 503 when any dependency check fails.
func (h *HealthHTTP) Ready(c echo.Context) error {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	resp := HealthResponse{
		Status:     StatusHealthy,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: make(map[string]ComponentHealth, len(h.Checks)),
	}
	for name, check := range h.Checks {
		start := time.Now()
		comp := ComponentHealth{Status: StatusHealthy}
		if err := check(ctx); err != nil {
			comp.Status = StatusUnhealthy
			comp.Message = err.Error()
			resp.Status = StatusUnhealthy
		}
		comp.Duration = time.Since(start).String()
		resp.Components[name] = comp
	}

	code := http.StatusOK
	if resp.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}

type WellKnownHTTP struct {
	Tokens *tokens.Codec
}

// JWKS publishes the access-token verification key.
func (h *WellKnownHTTP) JWKS(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return c.JSON(http.StatusOK, h.Tokens.JWKS())
}
