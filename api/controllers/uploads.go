package controllers

import (
	"context"
	"net/http"

	"github.com/cellarwise/cellarwise-backend/api/responses"
	"github.com/cellarwise/cellarwise-backend/api/validators"
	"github.com/cellarwise/cellarwise-backend/internal/sommelier"
	"github.com/cellarwise/cellarwise-backend/internal/uploads"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
	"github.com/google/uuid"
)

const wineImageField = "wine_image"

type uploadService interface {
	AnalyzeAndCreate(ctx context.Context, user *models.User, img sommelier.Image) (*models.UploadedWine, error)
	List(ctx context.Context, userID string) ([]models.UploadedWine, error)
	Update(ctx context.Context, userID string, id uuid.UUID, input uploads.UpdateUploadInput) (*models.UploadedWine, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// AnalyzeUpload reads a label photo, analyzes it and stores the result.
func AnalyzeUpload(svc uploadService, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		img, err := validators.ParseImageForm(w, r, wineImageField, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.AnalyzeAndCreate(r.Context(), user, toImage(img))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, uploads.FromModel(created))
	}
}

func ListUploads(svc uploadService, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteSuccess(w, uploads.FromModels(wines))
	}
}

// UpdateUpload applies user corrections to the whitelisted fields.
func UpdateUpload(svc uploadService, logg *logger.Logger) http.HandlerFunc {
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
		var input uploads.UpdateUploadInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.Update(r.Context(), user.ID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, uploads.FromModel(updated))
	}
}

func DeleteUpload(svc uploadService, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteSuccess(w, map[string]string{"message": "Upload deleted"})
	}
}

func toImage(img *validators.UploadedImage) sommelier.Image {
	return sommelier.Image{ContentType: img.ContentType, Data: img.Data}
}
