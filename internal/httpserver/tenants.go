package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pulak-sarmah/e-com-auth-service/internal/logging"
	"github.com/pulak-sarmah/e-com-auth-service/internal/service"
	"github.com/pulak-sarmah/e-com-auth-service/internal/transport"
)

type TenantHTTP struct {
	Svc *service.TenantService
}

func (h *TenantHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.TenantRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("create_tenant_failed", "status", 400, "reason", "invalid body", "error", err)
		return errInvalidBody
	}
	req.Normalize()
	if err := c.Validate(&req); err != nil {
		logging.FromContext(ctx).Warn("create_tenant_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}

	t, err := h.Svc.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, transport.IDResponse{ID: t.ID})
}

func (h *TenantHTTP) List(c echo.Context) error {
	page, size := pageParams(c)
	res, err := h.Svc.List(c.Request().Context(), page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *TenantHTTP) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	t, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TenantHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req transport.UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("update_tenant_failed", "status", 400, "reason", "invalid body", "error", err)
		return errInvalidBody
	}
	req.Normalize()
	if err := c.Validate(&req); err != nil {
		logging.FromContext(ctx).Warn("update_tenant_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}

	t, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.IDResponse{ID: t.ID})
}

func (h *TenantHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
