package outreach

import (
	"context"
	"strings"

	dbpkg "github.com/cellarwise/cellarwise-backend/pkg/db"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertSignup stores the address once. created is false when the address
// was already on the list.
func (r *Repository) InsertSignup(ctx context.Context, email, source string) (created bool, err error) {
	row := &models.EmailSignup{Email: strings.ToLower(strings.TrimSpace(email)), Source: source}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
