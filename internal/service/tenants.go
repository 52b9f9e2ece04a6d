package service

import (
	"context"
	"errors"

	"github.com/pulak-sarmah/e-com-auth-service/internal/logging"
	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
	"github.com/pulak-sarmah/e-com-auth-service/internal/repo"
	"github.com/pulak-sarmah/e-com-auth-service/internal/transport"
	"github.com/pulak-sarmah/e-com-auth-service/internal/util"
)

type TenantService struct {
	Repo *repo.GormRepo
}

func (s *TenantService) Create(ctx context.Context, req transport.TenantRequest) (*models.Tenant, error) {
	req.Normalize()
	if err := defaultValidator.Validate(&req); err != nil {
		return nil, err
	}
	t := &models.Tenant{Name: req.Name, Address: req.Address}

	if err := s.Repo.CreateTenant(ctx, t); err != nil {
		logging.FromContext(ctx).Error("create_tenant_failed", "status", 500, "error", err)
		return nil, internalErr(err)
	}
	logging.FromContext(ctx).Info("tenant_created", "tenant_id", t.ID)
	return t, nil
}

func (s *TenantService) List(ctx context.Context, page, size int) (transport.Page[models.Tenant], error) {
	w := util.Paginate(page, size)
	tenants, total, err := s.Repo.ListTenants(ctx, w.Offset, w.Size)
	if err != nil {
		logging.FromContext(ctx).Error("list_tenants_failed", "status", 500, "error", err)
		return transport.Page[models.Tenant]{}, internalErr(err)
	}
	return transport.NewPage(tenants, total, w.Page, w.Size), nil
}

func (s *TenantService) Get(ctx context.Context, id uint) (*models.Tenant, error) {
	t, err := s.Repo.TenantByID(ctx, id)
	if err != nil {
		return nil, s.repoErr(ctx, "get_tenant_failed", err)
	}
	return t, nil
}

func (s *TenantService) Update(ctx context.Context, id uint, req transport.UpdateTenantRequest) (*models.Tenant, error) {
	req.Normalize()
	if err := defaultValidator.Validate(&req); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}

	t, err := s.Repo.UpdateTenant(ctx, id, updates)
	if err != nil {
		return nil, s.repoErr(ctx, "update_tenant_failed", err)
	}
	return t, nil
}

// Delete detaches the tenant's users; they are not deleted.
func (s *TenantService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteTenant(ctx, id); err != nil {
		return s.repoErr(ctx, "delete_tenant_failed", err)
	}
	logging.FromContext(ctx).Info("tenant_deleted", "tenant_id", id)
	return nil
}

func (s *TenantService) repoErr(ctx context.Context, event string, err error) error {
	if errors.Is(err, repo.ErrTenantNotFound) {
		return newError(KindNotFound, "Tenant not found", err)
	}
	logging.FromContext(ctx).Error(event, "status", 500, "error", err)
	return internalErr(err)
}
