package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
)

// PersistRefresh stores a fresh record. Its id becomes the jti of the token
// issued for it.
func (r *GormRepo) PersistRefresh(ctx context.Context, userID uint, expiresAt time.Time) (*models.RefreshToken, error) {
	return persistRefresh(r.DB.WithContext(ctx), userID, expiresAt)
}

func persistRefresh(db *gorm.DB, userID uint, expiresAt time.Time) (*models.RefreshToken, error) {
	rec := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := db.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return rec, nil
}

// DeleteRefresh is idempotent: deleting an absent record is not an error.
func (r *GormRepo) DeleteRefresh(ctx context.Context, id uuid.UUID) error {
	if err := r.DB.WithContext(ctx).Delete(&models.RefreshToken{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (r *GormRepo) RefreshExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count refresh tokens: %w", err)
	}
	return count > 0, nil
}

// RotateRefresh creates the replacement record and deletes oldID in one
// transaction. When oldID is already gone (used, revoked or swept) the new
// record is rolled back and ErrRefreshNotFound is returned, so two concurrent
// refreshes with the same token cannot both succeed.
func (r *GormRepo) RotateRefresh(ctx context.Context, userID uint, oldID uuid.UUID, expiresAt time.Time) (*models.RefreshToken, error) {
	var rec *models.RefreshToken
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := persistRefresh(tx, userID, expiresAt)
		if err != nil {
			return err
		}

		res := tx.Where("id = ? AND user_id = ?", oldID, userID).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return fmt.Errorf("delete old refresh token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRefreshNotFound
		}

		rec = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *GormRepo) DeleteExpiredRefresh(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormRepo) CountRefresh(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count refresh tokens: %w", err)
	}
	return count, nil
}
