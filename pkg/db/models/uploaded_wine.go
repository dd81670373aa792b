package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadedWine is a label photo plus the analysis derived from it. The
// analysis fields are user editable after creation.
type UploadedWine struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID               string    `gorm:"column:user_id;type:text;not null;index"`
	ImageURL             string    `gorm:"column:image_url"`
	ImageObject          string    `gorm:"column:image_object"`
	WineName             string    `gorm:"column:wine_name"`
	WineType             string    `gorm:"column:wine_type"`
	Region               string    `gorm:"column:region"`
	Vintage              *int      `gorm:"column:vintage"`
	OptimalDrinkingStart *int      `gorm:"column:optimal_drinking_start"`
	OptimalDrinkingEnd   *int      `gorm:"column:optimal_drinking_end"`
	PeakYearsStart       *int      `gorm:"column:peak_years_start"`
	PeakYearsEnd         *int      `gorm:"column:peak_years_end"`
	Analysis             string    `gorm:"column:analysis;type:text"`
	EstimatedValue       string    `gorm:"column:estimated_value"`
	ABV                  string    `gorm:"column:abv"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *UploadedWine) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
