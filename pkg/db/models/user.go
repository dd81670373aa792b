package models

import (
	"time"

	dbtypes "github.com/cellarwise/cellarwise-backend/pkg/db/types"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
)

// User is the local record of an identity-provider account. ID is the
// provider subject.
type User struct {
	ID                   string                 `gorm:"column:id;type:text;primaryKey"`
	Email                string                 `gorm:"column:email;type:text"`
	FirstName            string                 `gorm:"column:first_name"`
	LastName             string                 `gorm:"column:last_name"`
	ProfileImageURL      string                 `gorm:"column:profile_image_url"`
	SubscriptionPlan     enums.SubscriptionPlan `gorm:"column:subscription_plan;type:text;not null;default:'free'"`
	StripeCustomerID     *string                `gorm:"column:stripe_customer_id;index"`
	StripeSubscriptionID *string                `gorm:"column:stripe_subscription_id"`
	ProfileCompleted     bool                   `gorm:"column:profile_completed;not null;default:false"`
	DateOfBirth          *time.Time             `gorm:"column:date_of_birth;type:date"`
	WineExperienceLevel  string                 `gorm:"column:wine_experience_level"`
	PreferredWineTypes   dbtypes.StringList     `gorm:"column:preferred_wine_types;type:jsonb"`
	BudgetRange          string                 `gorm:"column:budget_range"`
	Location             string                 `gorm:"column:location"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// IsPremium reports the locally mirrored entitlement.
func (u *User) IsPremium() bool {
	return u != nil && u.SubscriptionPlan.IsPremium()
}

// HasSubscription reports whether a provider subscription is on file.
func (u *User) HasSubscription() bool {
	return u != nil && u.StripeSubscriptionID != nil && *u.StripeSubscriptionID != ""
}
