package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
	"github.com/cellarwise/cellarwise-backend/pkg/metrics"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
)

const (
	actionCheckout   = "checkout"
	actionPortal     = "portal"
	actionAddress    = "update_address"
	actionPause      = "pause"
	actionResume     = "resume"
	actionChangePlan = "change_plan"
	actionCancel     = "cancel"
	actionReactivate = "reactivate"

	pauseBehavior     = "mark_uncollectible"
	prorationBehavior = "create_prorations"
)

var errNoSubscription = pkgerrors.New(pkgerrors.CodeNotFound, "no active subscription found")

type priceCatalog interface {
	PriceID(interval enums.BillingInterval) (string, bool)
	IntervalForPrice(priceID string) (enums.BillingInterval, bool)
}

type userStore interface {
	SetPlan(ctx context.Context, id string, plan enums.SubscriptionPlan) error
	SetStripeCustomer(ctx context.Context, id, customerID string) error
	SetStripeSubscription(ctx context.Context, id string, subscriptionID *string, plan enums.SubscriptionPlan) error
}

type ServiceParams struct {
	Stripe    StripeAPI
	Prices    priceCatalog
	Users     userStore
	PublicURL string
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// Service drives subscription transitions through Stripe. Local fields are
// written only after Stripe confirms the call.
type Service struct {
	stripe    StripeAPI
	prices    priceCatalog
	users     userStore
	publicURL string
	metrics   *metrics.Metrics
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe api required")
	}
	if params.Prices == nil {
		return nil, fmt.Errorf("price catalog required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users store required")
	}
	return &Service{
		stripe:    params.Stripe,
		prices:    params.Prices,
		users:     params.Users,
		publicURL: strings.TrimRight(params.PublicURL, "/"),
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// CreateCheckoutSession starts a subscription-mode checkout for interval.
// The Stripe customer is created and saved on the first attempt.
func (s *Service) CreateCheckoutSession(ctx context.Context, user *models.User, interval enums.BillingInterval) (out *SessionURL, err error) {
	defer func() { s.metrics.BillingAction(actionCheckout, err) }()

	priceID, ok := s.prices.PriceID(interval)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("plan %q is not available", interval))
	}
	if user.IsPremium() && user.HasSubscription() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "subscription already active")
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{"user_id": user.ID, "plan": interval.String()}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(customerID),
		ClientReferenceID: stripe.String(user.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		AllowPromotionCodes: stripe.Bool(true),
		SubscriptionData:    &stripe.CheckoutSessionSubscriptionDataParams{Metadata: meta},
		SuccessURL:          stripe.String(s.publicURL + "/dashboard?checkout=success&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           stripe.String(s.publicURL + "/pricing?checkout=cancelled"),
		Metadata:            meta,
	}
	sess, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, upstream(err, "failed to create checkout session")
	}
	return &SessionURL{SessionID: sess.ID, URL: sess.URL}, nil
}

func (s *Service) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}
	params := &stripe.CustomerParams{
		Metadata: map[string]string{"user_id": user.ID},
	}
	if user.Email != "" {
		params.Email = stripe.String(user.Email)
	}
	if name := strings.TrimSpace(user.FirstName + " " + user.LastName); name != "" {
		params.Name = stripe.String(name)
	}
	cust, err := s.stripe.CreateCustomer(ctx, params)
	if err != nil {
		return "", upstream(err, "failed to create billing customer")
	}
	if err := s.users.SetStripeCustomer(ctx, user.ID, cust.ID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save billing customer")
	}
	user.StripeCustomerID = &cust.ID
	return cust.ID, nil
}

// BillingInfo reads the live subscription and customer from Stripe.
func (s *Service) BillingInfo(ctx context.Context, user *models.User) (*Info, error) {
	info := &Info{Plan: user.SubscriptionPlan}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return info, nil
	}

	custParams := &stripe.CustomerParams{}
	custParams.AddExpand("invoice_settings.default_payment_method")
	cust, err := s.stripe.GetCustomer(ctx, *user.StripeCustomerID, custParams)
	if err != nil {
		return nil, upstream(err, "failed to load billing customer")
	}
	info.Address = addressFromStripe(cust)
	if cust.InvoiceSettings != nil {
		info.Card = cardFromStripe(cust.InvoiceSettings.DefaultPaymentMethod)
	}

	if !user.HasSubscription() {
		return info, nil
	}
	subParams := &stripe.SubscriptionParams{}
	subParams.AddExpand("default_payment_method")
	sub, err := s.stripe.GetSubscription(ctx, *user.StripeSubscriptionID, subParams)
	if err != nil {
		return nil, upstream(err, "failed to load subscription")
	}

	info.HasSubscription = true
	info.Status = enums.SubscriptionStatus(sub.Status)
	info.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	info.Paused = sub.PauseCollection != nil && sub.PauseCollection.Behavior != ""
	if card := cardFromStripe(sub.DefaultPaymentMethod); card != nil {
		info.Card = card
	}
	if item := firstItem(sub); item != nil {
		if item.CurrentPeriodEnd > 0 {
			end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			info.CurrentPeriodEnd = &end
		}
		info.Tier = s.tierOf(item)
		info.Price = priceFromStripe(item.Price)
	}
	return info, nil
}

func (s *Service) UpdateBillingAddress(ctx context.Context, user *models.User, input AddressInput) (out *Address, err error) {
	defer func() { s.metrics.BillingAction(actionAddress, err) }()

	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no billing customer found")
	}
	params := &stripe.CustomerParams{
		Address: &stripe.AddressParams{
			Line1:      stripe.String(strings.TrimSpace(input.Line1)),
			Line2:      stripe.String(strings.TrimSpace(input.Line2)),
			City:       stripe.String(strings.TrimSpace(input.City)),
			State:      stripe.String(strings.TrimSpace(input.State)),
			PostalCode: stripe.String(strings.TrimSpace(input.PostalCode)),
			Country:    stripe.String(strings.ToUpper(strings.TrimSpace(input.Country))),
		},
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		params.Name = stripe.String(name)
	}
	cust, err := s.stripe.UpdateCustomer(ctx, *user.StripeCustomerID, params)
	if err != nil {
		return nil, upstream(err, "failed to update billing address")
	}
	return addressFromStripe(cust), nil
}

func (s *Service) CreatePortalSession(ctx context.Context, user *models.User) (out *SessionURL, err error) {
	defer func() { s.metrics.BillingAction(actionPortal, err) }()

	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no billing customer found")
	}
	sess, err := s.stripe.CreatePortalSession(ctx, &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*user.StripeCustomerID),
		ReturnURL: stripe.String(s.publicURL + "/settings/billing"),
	})
	if err != nil {
		return nil, upstream(err, "failed to create portal session")
	}
	return &SessionURL{SessionID: sess.ID, URL: sess.URL}, nil
}

// Pause stops collection. Premium access is kept while paused.
func (s *Service) Pause(ctx context.Context, user *models.User) (out *SubscriptionState, err error) {
	defer func() { s.metrics.BillingAction(actionPause, err) }()

	subID, err := subscriptionID(user)
	if err != nil {
		return nil, err
	}
	sub, err := s.stripe.UpdateSubscription(ctx, subID, &stripe.SubscriptionParams{
		PauseCollection: &stripe.SubscriptionPauseCollectionParams{Behavior: stripe.String(pauseBehavior)},
	})
	if err != nil {
		return nil, upstream(err, "failed to pause subscription")
	}
	return s.state(user.SubscriptionPlan, sub, true, "Subscription paused"), nil
}

func (s *Service) Resume(ctx context.Context, user *models.User) (out *SubscriptionState, err error) {
	defer func() { s.metrics.BillingAction(actionResume, err) }()

	subID, err := subscriptionID(user)
	if err != nil {
		return nil, err
	}
	params := &stripe.SubscriptionParams{}
	params.AddExtra("pause_collection", "")
	sub, err := s.stripe.UpdateSubscription(ctx, subID, params)
	if err != nil {
		return nil, upstream(err, "failed to resume subscription")
	}
	return s.state(user.SubscriptionPlan, sub, true, "Subscription resumed"), nil
}

// ChangePlan swaps the subscription price with proration. Nothing is written
// locally; the tier is always read back from Stripe.
func (s *Service) ChangePlan(ctx context.Context, user *models.User, interval enums.BillingInterval) (out *SubscriptionState, err error) {
	defer func() { s.metrics.BillingAction(actionChangePlan, err) }()

	subID, err := subscriptionID(user)
	if err != nil {
		return nil, err
	}
	priceID, ok := s.prices.PriceID(interval)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("plan %q is not available", interval))
	}

	current, err := s.stripe.GetSubscription(ctx, subID, &stripe.SubscriptionParams{})
	if err != nil {
		return nil, upstream(err, "failed to load subscription")
	}
	item := firstItem(current)
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "subscription has no items")
	}
	if item.Price != nil && item.Price.ID == priceID {
		return s.state(user.SubscriptionPlan, current, false, "Already on the "+interval.String()+" plan"), nil
	}

	sub, err := s.stripe.UpdateSubscription(ctx, subID, &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{ID: stripe.String(item.ID), Price: stripe.String(priceID)},
		},
		ProrationBehavior: stripe.String(prorationBehavior),
	})
	if err != nil {
		return nil, upstream(err, "failed to change plan")
	}
	return s.state(user.SubscriptionPlan, sub, true, "Plan changed to "+interval.String()), nil
}

// Cancel either ends the subscription now, dropping the user to free, or
// schedules it for the end of the period and leaves the plan alone.
func (s *Service) Cancel(ctx context.Context, user *models.User, input CancelInput) (out *SubscriptionState, err error) {
	defer func() { s.metrics.BillingAction(actionCancel, err) }()

	subID, err := subscriptionID(user)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)

	if input.CancelImmediately {
		params := &stripe.SubscriptionCancelParams{}
		if reason != "" {
			params.CancellationDetails = &stripe.SubscriptionCancelCancellationDetailsParams{Comment: stripe.String(reason)}
		}
		sub, err := s.stripe.CancelSubscription(ctx, subID, params)
		if err != nil {
			return nil, upstream(err, "failed to cancel subscription")
		}
		if err := s.users.SetStripeSubscription(ctx, user.ID, nil, enums.SubscriptionPlanFree); err != nil {
			return nil, s.localWriteFailed(ctx, user, actionCancel, err)
		}
		user.SubscriptionPlan = enums.SubscriptionPlanFree
		user.StripeSubscriptionID = nil
		return s.state(user.SubscriptionPlan, sub, true, "Subscription canceled"), nil
	}

	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	if reason != "" {
		params.CancellationDetails = &stripe.SubscriptionCancellationDetailsParams{Comment: stripe.String(reason)}
	}
	sub, err := s.stripe.UpdateSubscription(ctx, subID, params)
	if err != nil {
		return nil, upstream(err, "failed to cancel subscription")
	}
	return s.state(user.SubscriptionPlan, sub, true, "Subscription will cancel at the end of the billing period"), nil
}

// Reactivate clears a pending cancellation and re-asserts premium locally.
func (s *Service) Reactivate(ctx context.Context, user *models.User) (out *SubscriptionState, err error) {
	defer func() { s.metrics.BillingAction(actionReactivate, err) }()

	subID, err := subscriptionID(user)
	if err != nil {
		return nil, err
	}
	sub, err := s.stripe.UpdateSubscription(ctx, subID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	})
	if err != nil {
		return nil, upstream(err, "failed to reactivate subscription")
	}
	if err := s.users.SetPlan(ctx, user.ID, enums.SubscriptionPlanPremium); err != nil {
		return nil, s.localWriteFailed(ctx, user, actionReactivate, err)
	}
	user.SubscriptionPlan = enums.SubscriptionPlanPremium
	return s.state(user.SubscriptionPlan, sub, true, "Subscription reactivated"), nil
}

// localWriteFailed reports a mirror write that failed after Stripe accepted
// the change. The next subscription webhook repairs the row.
func (s *Service) localWriteFailed(ctx context.Context, user *models.User, action string, err error) error {
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"user_id": user.ID, "action": action})
		s.logg.Error(ctx, "billing.local_write_failed", err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update subscription plan")
}

func (s *Service) state(plan enums.SubscriptionPlan, sub *stripe.Subscription, changed bool, msg string) *SubscriptionState {
	out := &SubscriptionState{Plan: plan, Changed: changed, Message: msg}
	if sub == nil {
		return out
	}
	out.Status = enums.SubscriptionStatus(sub.Status)
	out.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	out.Paused = sub.PauseCollection != nil && sub.PauseCollection.Behavior != ""
	if item := firstItem(sub); item != nil {
		out.Tier = s.tierOf(item)
	}
	return out
}

func (s *Service) tierOf(item *stripe.SubscriptionItem) enums.BillingInterval {
	if item.Price == nil {
		return ""
	}
	if interval, ok := s.prices.IntervalForPrice(item.Price.ID); ok {
		return interval
	}
	if item.Price.Recurring != nil {
		switch item.Price.Recurring.Interval {
		case stripe.PriceRecurringIntervalMonth:
			return enums.BillingIntervalMonthly
		case stripe.PriceRecurringIntervalYear:
			return enums.BillingIntervalYearly
		}
	}
	return ""
}

func subscriptionID(user *models.User) (string, error) {
	if user == nil || !user.HasSubscription() {
		return "", errNoSubscription
	}
	return *user.StripeSubscriptionID, nil
}

func firstItem(sub *stripe.Subscription) *stripe.SubscriptionItem {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	return sub.Items.Data[0]
}

func cardFromStripe(pm *stripe.PaymentMethod) *Card {
	if pm == nil || pm.Card == nil {
		return nil
	}
	return &Card{
		Brand:    string(pm.Card.Brand),
		Last4:    pm.Card.Last4,
		ExpMonth: pm.Card.ExpMonth,
		ExpYear:  pm.Card.ExpYear,
	}
}

func addressFromStripe(cust *stripe.Customer) *Address {
	if cust == nil || cust.Address == nil {
		return nil
	}
	return &Address{
		Name:       cust.Name,
		Line1:      cust.Address.Line1,
		Line2:      cust.Address.Line2,
		City:       cust.Address.City,
		State:      cust.Address.State,
		PostalCode: cust.Address.PostalCode,
		Country:    cust.Address.Country,
	}
}

// priceFromStripe converts minor units to a decimal amount.
func priceFromStripe(p *stripe.Price) *Price {
	if p == nil || p.UnitAmount == 0 {
		return nil
	}
	amount := decimal.New(p.UnitAmount, -2)
	currency := strings.ToUpper(string(p.Currency))
	return &Price{
		Amount:   amount,
		Currency: currency,
		Display:  fmt.Sprintf("%s %s", amount.StringFixed(2), currency),
	}
}

func upstream(err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, msg)
}
