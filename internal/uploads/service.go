package uploads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cellarwise/cellarwise-backend/internal/sommelier"
	"github.com/cellarwise/cellarwise-backend/internal/usage"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type usageGate interface {
	Check(ctx context.Context, user *models.User, kind enums.UsageKind) (usage.Decision, error)
	Guard(ctx context.Context, user *models.User, kind enums.UsageKind, insert func(tx *gorm.DB) error) error
}

type labelAnalyzer interface {
	AnalyzeWineImage(ctx context.Context, img sommelier.Image) (*sommelier.WineAnalysis, error)
}

type imageStore interface {
	Upload(ctx context.Context, object, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, object string) error
}

type ServiceParams struct {
	Repo     *Repository
	Usage    usageGate
	Analyzer labelAnalyzer
	// Images is optional; without it uploads keep no image reference.
	Images imageStore
	Logger *logger.Logger
}

// Service runs the upload-and-analyze flow and label edits.
type Service struct {
	repo     *Repository
	usage    usageGate
	analyzer labelAnalyzer
	images   imageStore
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("uploads repository required")
	}
	if params.Usage == nil {
		return nil, fmt.Errorf("usage gate required")
	}
	if params.Analyzer == nil {
		return nil, fmt.Errorf("label analyzer required")
	}
	return &Service{
		repo:     params.Repo,
		usage:    params.Usage,
		analyzer: params.Analyzer,
		images:   params.Images,
		logg:     params.Logger,
	}, nil
}

// AnalyzeAndCreate stores the label image, analyzes it and records the
// result. The plan ceiling is checked up front so over-limit users never hit
// storage or the model, and checked again atomically with the insert.
func (s *Service) AnalyzeAndCreate(ctx context.Context, user *models.User, img sommelier.Image) (*models.UploadedWine, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if len(img.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wine_image is required")
	}

	decision, err := s.usage.Check(ctx, user, enums.UsageKindUploaded)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, usage.LimitReached(enums.UsageKindUploaded, decision)
	}

	var object, imageURL string
	if s.images != nil {
		object = objectName(user.ID, img.ContentType, time.Now().UTC())
		imageURL, err = s.images.Upload(ctx, object, img.ContentType, img.Data)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "image upload failed")
		}
	}

	analysis, err := s.analyzer.AnalyzeWineImage(ctx, img)
	if err != nil {
		s.discardImage(ctx, object)
		return nil, err
	}

	wine := &models.UploadedWine{
		UserID:               user.ID,
		ImageURL:             imageURL,
		ImageObject:          object,
		WineName:             analysis.WineName,
		WineType:             analysis.WineType,
		Region:               analysis.Region,
		Vintage:              analysis.Vintage,
		OptimalDrinkingStart: analysis.OptimalDrinkingStart,
		OptimalDrinkingEnd:   analysis.OptimalDrinkingEnd,
		PeakYearsStart:       analysis.PeakYearsStart,
		PeakYearsEnd:         analysis.PeakYearsEnd,
		Analysis:             analysis.Analysis,
		EstimatedValue:       analysis.EstimatedValue,
		ABV:                  analysis.ABV,
	}
	err = s.usage.Guard(ctx, user, enums.UsageKindUploaded, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, wine)
	})
	if err != nil {
		s.discardImage(ctx, object)
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save upload")
	}
	return wine, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]models.UploadedWine, error) {
	wines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list uploads")
	}
	return wines, nil
}

// Update applies the whitelisted fields of input to an owned upload.
func (s *Service) Update(ctx context.Context, userID string, id uuid.UUID, input UpdateUploadInput) (*models.UploadedWine, error) {
	cols := input.columns()
	if len(cols) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updatable fields provided")
	}
	if name, ok := cols["wine_name"].(string); ok && name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wineName cannot be empty")
	}
	cols["updated_at"] = time.Now().UTC()

	found, err := s.repo.UpdateColumns(ctx, userID, id, cols)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update upload")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "upload not found")
	}
	wine, err := s.repo.FindOwned(ctx, userID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload upload")
	}
	if wine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "upload not found")
	}
	return wine, nil
}

func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	wine, err := s.repo.FindOwned(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load upload")
	}
	if wine == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "upload not found")
	}
	found, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete upload")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "upload not found")
	}
	s.discardImage(ctx, wine.ImageObject)
	return nil
}

// discardImage is best effort; a leftover object only costs storage.
func (s *Service) discardImage(ctx context.Context, object string) {
	if s.images == nil || object == "" {
		return
	}
	if err := s.images.Delete(ctx, object); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "object", object), "uploads.image_delete_failed", err)
	}
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

func objectName(userID, contentType string, now time.Time) string {
	ext := extensions[strings.ToLower(strings.TrimSpace(contentType))]
	return fmt.Sprintf("uploads/%s/%s-%s%s", userID, now.Format("20060102"), uuid.NewString(), ext)
}
