package cellar

import (
	"context"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists saved wines.
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

func (r *Repository) Create(ctx context.Context, wine *models.SavedWine) error {
	return r.db.WithContext(ctx).Create(wine).Error
}

// ListByUser returns the user's wines, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.SavedWine, error) {
	var wines []models.SavedWine
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&wines).Error
	return wines, err
}

// Delete removes id when owned by userID and reports whether a row matched.
func (r *Repository) Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.SavedWine{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
