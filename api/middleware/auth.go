package middleware

import (
	"context"
	"net/http"

	"github.com/cellarwise/cellarwise-backend/api/responses"
	"github.com/cellarwise/cellarwise-backend/pkg/auth"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
)

type tokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

type userProvisioner interface {
	EnsureUser(ctx context.Context, identity *auth.Identity) (*models.User, error)
}

// Auth verifies the bearer token, provisions the local user on first sight
// and seeds the request context with it. A nil verifier means the identity
// provider is not configured and every request gets 503.
func Auth(verifier tokenVerifier, users userProvisioner, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if verifier == nil || users == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotConfigured, "Authentication is not configured"))
				return
			}

			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Unauthorized"))
				return
			}

			user, err := users.EnsureUser(ctx, identity)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithUser(ctx, user)
			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID)
				ctx = logg.WithPlan(ctx, user.SubscriptionPlan.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePremium rejects users without a premium plan with an upgrade hint.
func RequirePremium(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
				return
			}
			if !user.IsPremium() {
				err := pkgerrors.New(pkgerrors.CodePremiumRequired, "Premium subscription required").
					WithDetails(map[string]any{"upgrade": true})
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
