package controllers

import (
	"context"
	"net/http"

	"github.com/cellarwise/cellarwise-backend/api/responses"
	"github.com/cellarwise/cellarwise-backend/api/validators"
	"github.com/cellarwise/cellarwise-backend/internal/cellar"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
	"github.com/google/uuid"
)

type cellarService interface {
	Save(ctx context.Context, user *models.User, input cellar.SaveWineInput) (*models.SavedWine, error)
	List(ctx context.Context, userID string) ([]models.SavedWine, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	Analytics(ctx context.Context, userID string) (*cellar.Analytics, error)
}

func SaveWine(svc cellarService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		var input cellar.SaveWineInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		saved, err := svc.Save(r.Context(), user, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cellar.FromModel(saved))
	}
}

func ListCellar(svc cellarService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		wines, err := svc.List(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cellar.FromModels(wines))
	}
}

func DeleteCellarWine(svc cellarService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), user.ID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Wine removed from cellar"})
	}
}

func CellarAnalytics(svc cellarService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		out, err := svc.Analytics(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
