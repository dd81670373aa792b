package models

import (
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SavedWine is a cellar entry owned by a user.
type SavedWine struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	UserID      string           `gorm:"column:user_id;type:text;not null;index"`
	WineName    string           `gorm:"column:wine_name;not null"`
	WineType    string           `gorm:"column:wine_type;not null"`
	Region      string           `gorm:"column:region"`
	Vintage     *int             `gorm:"column:vintage"`
	Description string           `gorm:"column:description"`
	PriceRange  string           `gorm:"column:price_range"`
	ABV         string           `gorm:"column:abv"`
	Rating      *float64         `gorm:"column:rating"`
	Source      enums.WineSource `gorm:"column:source;type:text;not null"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (w *SavedWine) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
