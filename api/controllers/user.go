package controllers

import (
	"context"
	"net/http"

	"github.com/cellarwise/cellarwise-backend/api/middleware"
	"github.com/cellarwise/cellarwise-backend/api/responses"
	"github.com/cellarwise/cellarwise-backend/api/validators"
	"github.com/cellarwise/cellarwise-backend/internal/usage"
	"github.com/cellarwise/cellarwise-backend/internal/users"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
)

type usageCounter interface {
	Counts(ctx context.Context, userID string) (usage.Counts, error)
}

type profileCompleter interface {
	CompleteProfile(ctx context.Context, id string, input users.ProfileInput) (*models.User, error)
}

type currentUserResponse struct {
	*users.UserDTO
	Usage  usage.Counts `json:"usage"`
	Limits usage.Limits `json:"limits"`
}

// AuthUser returns the caller with their usage counters.
func AuthUser(counter usageCounter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		counts, err := counter.Counts(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, currentUserResponse{
			UserDTO: users.FromModel(user),
			Usage:   counts,
			Limits:  usage.LimitsFor(user.SubscriptionPlan),
		})
	}
}

// CompleteProfile stores the onboarding answers.
func CompleteProfile(svc profileCompleter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		var input users.ProfileInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.CompleteProfile(r.Context(), user.ID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(updated))
	}
}

func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*models.User, bool) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
		return nil, false
	}
	return user, true
}
