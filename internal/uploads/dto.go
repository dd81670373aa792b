package uploads

import (
	"strings"
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/google/uuid"
)

type UploadedWineDTO struct {
	ID                   uuid.UUID `json:"id"`
	UserID               string    `json:"userId"`
	ImageURL             string    `json:"imageUrl"`
	WineName             string    `json:"wineName"`
	WineType             string    `json:"wineType"`
	Region               string    `json:"region"`
	Vintage              *int      `json:"vintage"`
	OptimalDrinkingStart *int      `json:"optimalDrinkingStart"`
	OptimalDrinkingEnd   *int      `json:"optimalDrinkingEnd"`
	PeakYearsStart       *int      `json:"peakYearsStart"`
	PeakYearsEnd         *int      `json:"peakYearsEnd"`
	Analysis             string    `json:"analysis"`
	EstimatedValue       string    `json:"estimatedValue"`
	ABV                  string    `json:"abv"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func FromModel(w *models.UploadedWine) UploadedWineDTO {
	return UploadedWineDTO{
		ID:                   w.ID,
		UserID:               w.UserID,
		ImageURL:             w.ImageURL,
		WineName:             w.WineName,
		WineType:             w.WineType,
		Region:               w.Region,
		Vintage:              w.Vintage,
		OptimalDrinkingStart: w.OptimalDrinkingStart,
		OptimalDrinkingEnd:   w.OptimalDrinkingEnd,
		PeakYearsStart:       w.PeakYearsStart,
		PeakYearsEnd:         w.PeakYearsEnd,
		Analysis:             w.Analysis,
		EstimatedValue:       w.EstimatedValue,
		ABV:                  w.ABV,
		CreatedAt:            w.CreatedAt,
		UpdatedAt:            w.UpdatedAt,
	}
}

func FromModels(wines []models.UploadedWine) []UploadedWineDTO {
	out := make([]UploadedWineDTO, 0, len(wines))
	for i := range wines {
		out = append(out, FromModel(&wines[i]))
	}
	return out
}

// UpdateUploadInput lists the user-correctable fields. Absent fields are left
// untouched; anything not listed here cannot be changed.
type UpdateUploadInput struct {
	WineName             *string `json:"wineName" validate:"omitempty,min=1,max=200"`
	WineType             *string `json:"wineType" validate:"omitempty,max=60"`
	Region               *string `json:"region" validate:"omitempty,max=120"`
	Vintage              *int    `json:"vintage" validate:"omitempty,min=1800,max=2100"`
	OptimalDrinkingStart *int    `json:"optimalDrinkingStart" validate:"omitempty,min=1800,max=2200"`
	OptimalDrinkingEnd   *int    `json:"optimalDrinkingEnd" validate:"omitempty,min=1800,max=2200"`
	PeakYearsStart       *int    `json:"peakYearsStart" validate:"omitempty,min=1800,max=2200"`
	PeakYearsEnd         *int    `json:"peakYearsEnd" validate:"omitempty,min=1800,max=2200"`
	Analysis             *string `json:"analysis" validate:"omitempty,max=5000"`
	EstimatedValue       *string `json:"estimatedValue" validate:"omitempty,max=60"`
	ABV                  *string `json:"abv" validate:"omitempty,max=20"`
}

// columns maps the set fields to their database columns.
func (in UpdateUploadInput) columns() map[string]any {
	cols := map[string]any{}
	setString := func(col string, v *string) {
		if v != nil {
			cols[col] = strings.TrimSpace(*v)
		}
	}
	setInt := func(col string, v *int) {
		if v != nil {
			cols[col] = *v
		}
	}
	setString("wine_name", in.WineName)
	setString("wine_type", in.WineType)
	setString("region", in.Region)
	setInt("vintage", in.Vintage)
	setInt("optimal_drinking_start", in.OptimalDrinkingStart)
	setInt("optimal_drinking_end", in.OptimalDrinkingEnd)
	setInt("peak_years_start", in.PeakYearsStart)
	setInt("peak_years_end", in.PeakYearsEnd)
	setString("analysis", in.Analysis)
	setString("estimated_value", in.EstimatedValue)
	setString("abv", in.ABV)
	return cols
}
