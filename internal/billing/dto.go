package billing

import (
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

type CheckoutInput struct {
	Plan string `json:"plan" validate:"required,oneof=monthly yearly"`
}

type ChangePlanInput struct {
	NewPlan string `json:"newPlan" validate:"required,oneof=monthly yearly"`
}

type CancelInput struct {
	CancelImmediately bool   `json:"cancelImmediately"`
	Reason            string `json:"reason" validate:"omitempty,max=500"`
}

type AddressInput struct {
	Name       string `json:"name" validate:"omitempty,max=120"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"omitempty,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,len=2"`
}

type SessionURL struct {
	SessionID string `json:"sessionId,omitempty"`
	URL       string `json:"url"`
}

type Card struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"expMonth"`
	ExpYear  int64  `json:"expYear"`
}

type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Price struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Display  string          `json:"display"`
}

// Info is the billing page summary. Tier is read from the provider on each
// call; only the plan is mirrored locally.
type Info struct {
	Plan              enums.SubscriptionPlan   `json:"plan"`
	HasSubscription   bool                     `json:"hasSubscription"`
	Tier              enums.BillingInterval    `json:"tier,omitempty"`
	Status            enums.SubscriptionStatus `json:"status,omitempty"`
	CurrentPeriodEnd  *time.Time               `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool                     `json:"cancelAtPeriodEnd"`
	Paused            bool                     `json:"paused"`
	Price             *Price                   `json:"price,omitempty"`
	Card              *Card                    `json:"card,omitempty"`
	Address           *Address                 `json:"billingAddress,omitempty"`
}

// SubscriptionState is returned by the lifecycle actions.
type SubscriptionState struct {
	Plan              enums.SubscriptionPlan   `json:"plan"`
	Status            enums.SubscriptionStatus `json:"status"`
	Tier              enums.BillingInterval    `json:"tier,omitempty"`
	CancelAtPeriodEnd bool                     `json:"cancelAtPeriodEnd"`
	Paused            bool                     `json:"paused"`
	Changed           bool                     `json:"changed"`
	Message           string                   `json:"message"`
}
