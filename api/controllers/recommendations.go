package controllers

import (
	"context"
	"net/http"

	"github.com/cellarwise/cellarwise-backend/api/responses"
	"github.com/cellarwise/cellarwise-backend/api/validators"
	"github.com/cellarwise/cellarwise-backend/internal/sommelier"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
)

type recommender interface {
	Recommendations(ctx context.Context, query string) (*sommelier.RecommendationResult, error)
}

type recommendationRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

// Recommendations answers a free-text wine query.
func Recommendations(svc recommender, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r, logg); !ok {
			return
		}
		var body recommendationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Recommendations(r.Context(), body.Query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
