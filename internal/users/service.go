package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/auth"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
)

// MinimumAge is the legal drinking age enforced at onboarding.
const MinimumAge = 21

type repository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	InsertIfAbsent(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id string, p ProfileUpdate) error
}

// Service provisions and maintains local user records.
type Service interface {
	EnsureUser(ctx context.Context, identity *auth.Identity) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	CompleteProfile(ctx context.Context, id string, input ProfileInput) (*models.User, error)
}

type ServiceParams struct {
	Repo     repository
	Profiles auth.ProfileSource
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     repository
	profiles auth.ProfileSource
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		profiles: params.Profiles,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// EnsureUser returns the local record for a verified identity, creating it
// on first sight. Concurrent first requests converge on a single row.
func (s *service) EnsureUser(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	if identity == nil || strings.TrimSpace(identity.Subject) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity subject required")
	}

	existing, err := s.repo.FindByID(ctx, identity.Subject)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if existing != nil {
		return existing, nil
	}

	profile := s.lookupProfile(ctx, identity)
	user := &models.User{
		ID:                 identity.Subject,
		Email:              profile.Email,
		FirstName:          profile.FirstName,
		LastName:           profile.LastName,
		ProfileImageURL:    profile.ImageURL,
		SubscriptionPlan:   enums.SubscriptionPlanFree,
		ProfileCompleted:   false,
		PreferredWineTypes: []string{},
	}
	if err := s.repo.InsertIfAbsent(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision user")
	}

	created, err := s.repo.FindByID(ctx, identity.Subject)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	if created == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user not persisted")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, created.ID), "user provisioned")
	}
	return created, nil
}

// lookupProfile prefers the provider's user API and falls back to whatever
// the session token carried.
func (s *service) lookupProfile(ctx context.Context, identity *auth.Identity) auth.Profile {
	fromClaims := auth.Profile{
		Email:     identity.Email,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		ImageURL:  identity.ImageURL,
	}
	if s.profiles == nil {
		return fromClaims
	}
	profile, err := s.profiles.Profile(ctx, identity.Subject)
	if err != nil || profile == nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, identity.Subject), "profile lookup failed, using token claims")
		}
		return fromClaims
	}
	if profile.Email == "" {
		profile.Email = fromClaims.Email
	}
	return *profile
}

func (s *service) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *service) CompleteProfile(ctx context.Context, id string, input ProfileInput) (*models.User, error) {
	dob, err := time.Parse(dateLayout, strings.TrimSpace(input.DateOfBirth))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dateOfBirth must be YYYY-MM-DD")
	}
	if age(dob, s.now()) < MinimumAge {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("you must be at least %d years old", MinimumAge))
	}

	types := make([]string, 0, len(input.PreferredWineTypes))
	for _, t := range input.PreferredWineTypes {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			types = append(types, trimmed)
		}
	}

	err = s.repo.UpdateProfile(ctx, id, ProfileUpdate{
		DateOfBirth:         dob,
		WineExperienceLevel: input.WineExperienceLevel,
		PreferredWineTypes:  types,
		BudgetRange:         strings.TrimSpace(input.BudgetRange),
		Location:            strings.TrimSpace(input.Location),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return s.Get(ctx, id)
}

func age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}
