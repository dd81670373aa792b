package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/cellarwise/cellarwise-backend/api/responses"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

const maxWebhookBodyBytes = 1 << 20

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type StripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type stripeClient interface {
	SigningSecret() string
}

type webhookRecorder interface {
	WebhookEvent(eventType string, err error)
}

// StripeWebhook verifies and applies subscription lifecycle events. The body
// must reach this handler unparsed for the signature check to hold.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard StripeWebhookGuard, rec webhookRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || client == nil || client.SigningSecret() == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotConfigured, "stripe webhooks are not configured"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEventWithOptions(payload, sigHeader, client.SigningSecret(), webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stripe signature"))
			return
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"event_id": event.ID, "event_type": string(event.Type)})
		}

		if guard != nil {
			alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
			if err != nil {
				// Fail open; event handling is idempotent.
				if logg != nil {
					logg.Error(ctx, "stripe.webhook.idempotency_failed", err)
				}
			} else if alreadyProcessed {
				responses.WriteSuccess(w, map[string]bool{"received": true})
				return
			}
		}

		err = svc.HandleEvent(ctx, &event)
		if rec != nil {
			rec.WebhookEvent(string(event.Type), err)
		}
		if err != nil {
			if guard != nil {
				_ = guard.Delete(ctx, event.ID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, "stripe.webhook.processed")
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
