package cellar

import (
	"context"
	"fmt"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type usageGuard interface {
	Guard(ctx context.Context, user *models.User, kind enums.UsageKind, insert func(tx *gorm.DB) error) error
}

// Service manages a user's saved wines.
type Service struct {
	repo  *Repository
	guard usageGuard
}

func NewService(repo *Repository, guard usageGuard) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cellar repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("usage guard required")
	}
	return &Service{repo: repo, guard: guard}, nil
}

// Save adds a wine to the cellar, subject to the plan ceiling.
func (s *Service) Save(ctx context.Context, user *models.User, input SaveWineInput) (*models.SavedWine, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	wine := input.toModel(user.ID)
	if wine.WineName == "" || wine.WineType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wineName and wineType are required")
	}

	err := s.guard.Guard(ctx, user, enums.UsageKindSaved, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, wine)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save wine")
	}
	return wine, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]models.SavedWine, error) {
	wines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wines")
	}
	return wines, nil
}

func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete wine")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wine not found")
	}
	return nil
}

// Analytics summarizes the user's cellar.
func (s *Service) Analytics(ctx context.Context, userID string) (*Analytics, error) {
	wines, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Summarize(wines), nil
}
