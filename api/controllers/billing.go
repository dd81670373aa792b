package controllers

import (
	"context"
	"net/http"

	"github.com/cellarwise/cellarwise-backend/api/responses"
	"github.com/cellarwise/cellarwise-backend/api/validators"
	"github.com/cellarwise/cellarwise-backend/internal/billing"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
)

// BillingService is nil when Stripe is not configured.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, user *models.User, interval enums.BillingInterval) (*billing.SessionURL, error)
	BillingInfo(ctx context.Context, user *models.User) (*billing.Info, error)
	UpdateBillingAddress(ctx context.Context, user *models.User, input billing.AddressInput) (*billing.Address, error)
	CreatePortalSession(ctx context.Context, user *models.User) (*billing.SessionURL, error)
	Pause(ctx context.Context, user *models.User) (*billing.SubscriptionState, error)
	Resume(ctx context.Context, user *models.User) (*billing.SubscriptionState, error)
	ChangePlan(ctx context.Context, user *models.User, interval enums.BillingInterval) (*billing.SubscriptionState, error)
	Cancel(ctx context.Context, user *models.User, input billing.CancelInput) (*billing.SubscriptionState, error)
	Reactivate(ctx context.Context, user *models.User) (*billing.SubscriptionState, error)
}

// billingHandler resolves the caller and answers 503 when billing is not
// configured, then writes whatever run returns.
func billingHandler(svc BillingService, logg *logger.Logger, run func(r *http.Request, user *models.User) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotConfigured, "Billing is not configured"))
			return
		}
		out, err := run(r, user)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func CreateCheckoutSession(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return billingHandler(svc, logg, func(r *http.Request, user *models.User) (any, error) {
		var input billing.CheckoutInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			return nil, err
		}
		interval, err := parseInterval(input.Plan)
		if err != nil {
			return nil, err
		}
		return svc.CreateCheckoutSession(r.Context(), user, interval)
	})
}

func BillingInfo(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return billingHandler(svc, logg, func(r *http.Request, user *models.User) (any, error) {
		return svc.BillingInfo(r.Context(), user)
	})
}

func UpdateBillingAddress(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return billingHandler(svc, logg, func(r *http.Request, user *models.User) (any, error) {
		var input billing.AddressInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			return nil, err
		}
		address, err := svc.UpdateBillingAddress(r.Context(), user, input)
		if err != nil {
			return nil, err
		}
		return map[string]any{"message": "Billing address updated", "billingAddress": address}, nil
	})
}

func CreatePortalSession(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return billingHandler(svc, logg, func(r *http.Request, user *models.User) (any, error) {
		return svc.CreatePortalSession(r.Context(), user)
	})
}

func PauseSubscription(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return billingHandler(svc, logg, func(r *http.Request, user *models.User) (any, error) {
		return svc.Pause(r.Context(), user)
	})
}

func ResumeSubscription(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return billingHandler(svc, logg, func(r *http.Request, user *models.User) (any, error) {
		return svc.Resume(r.Context(), user)
	})
}

func ChangePlan(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return billingHandler(svc, logg, func(r *http.Request, user *models.User) (any, error) {
		var input billing.ChangePlanInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			return nil, err
		}
		interval, err := parseInterval(input.NewPlan)
		if err != nil {
			return nil, err
		}
		return svc.ChangePlan(r.Context(), user, interval)
	})
}

// CancelSubscription accepts an empty body as a period-end cancellation.
func CancelSubscription(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return billingHandler(svc, logg, func(r *http.Request, user *models.User) (any, error) {
		var input billing.CancelInput
		if err := validators.DecodeOptionalJSONBody(r, &input); err != nil {
			return nil, err
		}
		return svc.Cancel(r.Context(), user, input)
	})
}

func ReactivateSubscription(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return billingHandler(svc, logg, func(r *http.Request, user *models.User) (any, error) {
		return svc.Reactivate(r.Context(), user)
	})
}

func parseInterval(raw string) (enums.BillingInterval, error) {
	interval, err := enums.ParseBillingInterval(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "plan must be monthly or yearly")
	}
	return interval, nil
}
