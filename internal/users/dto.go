package users

import (
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
)

// UserDTO is the transport shape of a user record.
type UserDTO struct {
	ID                   string                 `json:"id"`
	Email                string                 `json:"email"`
	FirstName            string                 `json:"firstName"`
	LastName             string                 `json:"lastName"`
	ProfileImageURL      string                 `json:"profileImageUrl"`
	SubscriptionPlan     enums.SubscriptionPlan `json:"subscriptionPlan"`
	StripeCustomerID     *string                `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID *string                `json:"stripeSubscriptionId,omitempty"`
	ProfileCompleted     bool                   `json:"profileCompleted"`
	DateOfBirth          *string                `json:"dateOfBirth,omitempty"`
	WineExperienceLevel  string                 `json:"wineExperienceLevel,omitempty"`
	PreferredWineTypes   []string               `json:"preferredWineTypes"`
	BudgetRange          string                 `json:"budgetRange,omitempty"`
	Location             string                 `json:"location,omitempty"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
}

const dateLayout = "2006-01-02"

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		ID:                   u.ID,
		Email:                u.Email,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		ProfileImageURL:      u.ProfileImageURL,
		SubscriptionPlan:     u.SubscriptionPlan,
		StripeCustomerID:     u.StripeCustomerID,
		StripeSubscriptionID: u.StripeSubscriptionID,
		ProfileCompleted:     u.ProfileCompleted,
		WineExperienceLevel:  u.WineExperienceLevel,
		PreferredWineTypes:   append([]string{}, u.PreferredWineTypes...),
		BudgetRange:          u.BudgetRange,
		Location:             u.Location,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format(dateLayout)
		dto.DateOfBirth = &dob
	}
	return dto
}

// ProfileInput is the onboarding payload.
type ProfileInput struct {
	DateOfBirth         string   `json:"dateOfBirth" validate:"required"`
	WineExperienceLevel string   `json:"wineExperienceLevel" validate:"required,oneof=beginner intermediate advanced expert"`
	PreferredWineTypes  []string `json:"preferredWineTypes" validate:"max=10,dive,required,max=40"`
	BudgetRange         string   `json:"budgetRange" validate:"omitempty,max=40"`
	Location            string   `json:"location" validate:"omitempty,max=120"`
}
