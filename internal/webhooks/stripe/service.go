package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cellarwise/cellarwise-backend/internal/users"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Users             *users.Repository
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service mirrors subscription events onto the user's plan columns.
type Service struct {
	users    *users.Repository
	txRunner txRunner
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{
		users:    params.Users,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
	}, nil
}

// HandleEvent applies a verified event. Unhandled types are acknowledged
// without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		if sub.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
		}
		return s.syncSubscription(ctx, &sub, event.Type == stripe.EventTypeCustomerSubscriptionDeleted)
	default:
		return nil
	}
}

func (s *Service) syncSubscription(ctx context.Context, sub *stripe.Subscription, deleted bool) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		user, err := s.resolveUser(ctx, repo, sub)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription owner")
		}
		if user == nil {
			s.warn(ctx, sub, "stripe.webhook.owner_not_found")
			return nil
		}

		if deleted {
			subID := user.StripeSubscriptionID
			if subID != nil && *subID == sub.ID {
				subID = nil
			}
			return wrapWrite(repo.SetStripeSubscription(ctx, user.ID, subID, enums.SubscriptionPlanFree))
		}

		plan := PlanForStatus(enums.SubscriptionStatus(sub.Status))
		subID := sub.ID
		return wrapWrite(repo.SetStripeSubscription(ctx, user.ID, &subID, plan))
	})
}

// resolveUser prefers the user id stamped at checkout and falls back to the
// customer id. The row is re-read under lock.
func (s *Service) resolveUser(ctx context.Context, repo *users.Repository, sub *stripe.Subscription) (*models.User, error) {
	if id := sub.Metadata["user_id"]; id != "" {
		user, err := repo.LockByID(ctx, id)
		if err != nil || user != nil {
			return user, err
		}
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return nil, nil
	}
	owner, err := repo.FindByStripeCustomer(ctx, sub.Customer.ID)
	if err != nil || owner == nil {
		return nil, err
	}
	return repo.LockByID(ctx, owner.ID)
}

func (s *Service) warn(ctx context.Context, sub *stripe.Subscription, msg string) {
	if s.logg == nil {
		return
	}
	fields := map[string]any{"stripe_subscription_id": sub.ID}
	if sub.Customer != nil {
		fields["stripe_customer_id"] = sub.Customer.ID
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), msg)
}

// PlanForStatus maps a provider status onto the local entitlement.
func PlanForStatus(status enums.SubscriptionStatus) enums.SubscriptionPlan {
	switch status {
	case enums.SubscriptionStatusActive, enums.SubscriptionStatusTrialing:
		return enums.SubscriptionPlanPremium
	default:
		return enums.SubscriptionPlanFree
	}
}

func wrapWrite(err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update subscription plan")
}
