package repo

import (
	"context"
	"fmt"

	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
)

func (r *GormRepo) CreateTenant(ctx context.Context, t *models.Tenant) error {
	if err := r.DB.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (r *GormRepo) TenantByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err, ErrTenantNotFound)
	}
	return &t, nil
}

func (r *GormRepo) TenantExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count tenants: %w", err)
	}
	return count > 0, nil
}

func (r *GormRepo) ListTenants(ctx context.Context, offset, limit int) ([]models.Tenant, int64, error) {
	var (
		tenants []models.Tenant
		total   int64
	)
	q := r.DB.WithContext(ctx).Model(&models.Tenant{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}
	if err := q.Order("id").Offset(offset).Limit(limit).Find(&tenants).Error; err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, total, nil
}

func (r *GormRepo) UpdateTenant(ctx context.Context, id uint, updates map[string]any) (*models.Tenant, error) {
	if len(updates) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Tenant{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("update tenant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrTenantNotFound
		}
	}
	return r.TenantByID(ctx, id)
}

// DeleteTenant detaches the tenant's users before removing the row; sqlite
// does not enforce the ON DELETE SET NULL constraint unless foreign keys are on.
func (r *GormRepo) DeleteTenant(ctx context.Context, id uint) error {
	db := r.DB.WithContext(ctx)
	if err := db.Model(&models.User{}).Where("tenant_id = ?", id).Update("tenant_id", nil).Error; err != nil {
		return fmt.Errorf("detach tenant users: %w", err)
	}
	res := db.Delete(&models.Tenant{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete tenant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTenantNotFound
	}
	return nil
}
