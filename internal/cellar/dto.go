package cellar

import (
	"strings"
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	"github.com/google/uuid"
)

// SaveWineInput is the save-to-cellar payload.
type SaveWineInput struct {
	WineName    string   `json:"wineName" validate:"required,max=200"`
	WineType    string   `json:"wineType" validate:"required,max=60"`
	Region      string   `json:"region" validate:"omitempty,max=120"`
	Vintage     *int     `json:"vintage" validate:"omitempty,min=1800,max=2100"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	PriceRange  string   `json:"priceRange" validate:"omitempty,max=60"`
	ABV         string   `json:"abv" validate:"omitempty,max=20"`
	Rating      *float64 `json:"rating" validate:"omitempty,min=0,max=100"`
	Source      string   `json:"source" validate:"omitempty,oneof=recommendation upload"`
}

func (in SaveWineInput) toModel(userID string) *models.SavedWine {
	source := enums.WineSourceRecommendation
	if parsed, err := enums.ParseWineSource(in.Source); err == nil {
		source = parsed
	}
	return &models.SavedWine{
		UserID:      userID,
		WineName:    strings.TrimSpace(in.WineName),
		WineType:    strings.TrimSpace(in.WineType),
		Region:      strings.TrimSpace(in.Region),
		Vintage:     in.Vintage,
		Description: strings.TrimSpace(in.Description),
		PriceRange:  strings.TrimSpace(in.PriceRange),
		ABV:         strings.TrimSpace(in.ABV),
		Rating:      in.Rating,
		Source:      source,
	}
}

// SavedWineDTO is the transport shape of a cellar entry.
type SavedWineDTO struct {
	ID          uuid.UUID        `json:"id"`
	UserID      string           `json:"userId"`
	WineName    string           `json:"wineName"`
	WineType    string           `json:"wineType"`
	Region      string           `json:"region"`
	Vintage     *int             `json:"vintage"`
	Description string           `json:"description"`
	PriceRange  string           `json:"priceRange"`
	ABV         string           `json:"abv"`
	Rating      *float64         `json:"rating"`
	Source      enums.WineSource `json:"source"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func FromModel(w *models.SavedWine) SavedWineDTO {
	return SavedWineDTO{
		ID:          w.ID,
		UserID:      w.UserID,
		WineName:    w.WineName,
		WineType:    w.WineType,
		Region:      w.Region,
		Vintage:     w.Vintage,
		Description: w.Description,
		PriceRange:  w.PriceRange,
		ABV:         w.ABV,
		Rating:      w.Rating,
		Source:      w.Source,
		CreatedAt:   w.CreatedAt,
	}
}

func FromModels(wines []models.SavedWine) []SavedWineDTO {
	out := make([]SavedWineDTO, 0, len(wines))
	for i := range wines {
		out = append(out, FromModel(&wines[i]))
	}
	return out
}
