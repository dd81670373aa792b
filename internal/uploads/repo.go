package uploads

import (
	"context"
	"errors"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists uploaded wines.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, wine *models.UploadedWine) error {
	return r.db.WithContext(ctx).Create(wine).Error
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.UploadedWine, error) {
	var wines []models.UploadedWine
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&wines).Error
	return wines, err
}

// FindOwned returns (nil, nil) when id does not exist or belongs to someone else.
func (r *Repository) FindOwned(ctx context.Context, userID string, id uuid.UUID) (*models.UploadedWine, error) {
	var wine models.UploadedWine
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&wine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wine, nil
}

// UpdateColumns writes cols on an owned row and reports whether it matched.
func (r *Repository) UpdateColumns(ctx context.Context, userID string, id uuid.UUID, cols map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UploadedWine{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(cols)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.UploadedWine{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
