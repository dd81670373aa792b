package usage

import (
	"context"
	"fmt"

	"github.com/cellarwise/cellarwise-backend/internal/users"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/metrics"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Counts is the per-user usage summary.
type Counts struct {
	SavedWines    int64 `json:"savedWines"`
	UploadedWines int64 `json:"uploadedWines"`
}

// Decision is the outcome of a plan-limit check. MaxCount is Unlimited for
// plans without a ceiling.
type Decision struct {
	Allowed      bool
	CurrentCount int64
	MaxCount     int
}

// Service computes usage and gates writes against plan ceilings.
type Service struct {
	db      *gorm.DB
	tx      txRunner
	users   *users.Repository
	metrics *metrics.Metrics
}

type ServiceParams struct {
	DB                *gorm.DB
	TransactionRunner txRunner
	Users             *users.Repository
	Metrics           *metrics.Metrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &Service{
		db:      params.DB,
		tx:      params.TransactionRunner,
		users:   params.Users,
		metrics: params.Metrics,
	}, nil
}

// Counts returns the saved and uploaded totals for userID.
func (s *Service) Counts(ctx context.Context, userID string) (Counts, error) {
	var out Counts
	saved, err := count(ctx, s.db, userID, enums.UsageKindSaved)
	if err != nil {
		return out, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count saved wines")
	}
	uploaded, err := count(ctx, s.db, userID, enums.UsageKindUploaded)
	if err != nil {
		return out, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count uploaded wines")
	}
	out.SavedWines = saved
	out.UploadedWines = uploaded
	return out, nil
}

// Check evaluates the gate without writing. Callers that go on to insert
// should use Guard instead.
func (s *Service) Check(ctx context.Context, user *models.User, kind enums.UsageKind) (Decision, error) {
	if user == nil {
		return Decision{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	return decide(ctx, s.db, user, kind)
}

// Guard runs insert inside a transaction that holds the user's row lock, so
// the count it observes cannot change before insert commits. insert only
// runs when the plan allows another row of kind.
func (s *Service) Guard(ctx context.Context, user *models.User, kind enums.UsageKind, insert func(tx *gorm.DB) error) error {
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown usage kind %q", kind))
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.users.WithTx(tx).LockByID(ctx, user.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock user")
		}
		if locked == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}

		decision, err := decide(ctx, tx, locked, kind)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			s.metrics.PlanLimitDenied(kind.String())
			return LimitReached(kind, decision)
		}
		return insert(tx)
	})
}

func decide(ctx context.Context, db *gorm.DB, user *models.User, kind enums.UsageKind) (Decision, error) {
	ceiling := LimitsFor(user.SubscriptionPlan).For(kind)
	if ceiling == Unlimited {
		return Decision{Allowed: true, MaxCount: Unlimited}, nil
	}
	current, err := count(ctx, db, user.ID, kind)
	if err != nil {
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count usage")
	}
	return Decision{
		Allowed:      current < int64(ceiling),
		CurrentCount: current,
		MaxCount:     ceiling,
	}, nil
}

func count(ctx context.Context, db *gorm.DB, userID string, kind enums.UsageKind) (int64, error) {
	var model any
	switch kind {
	case enums.UsageKindSaved:
		model = &models.SavedWine{}
	case enums.UsageKindUploaded:
		model = &models.UploadedWine{}
	default:
		return 0, fmt.Errorf("unknown usage kind %q", kind)
	}
	var n int64
	err := db.WithContext(ctx).Model(model).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// LimitDetails is carried on plan-limit errors.
type LimitDetails struct {
	CurrentCount int64 `json:"currentCount"`
	MaxCount     int   `json:"maxCount"`
}

// LimitReached builds the error returned when a free user is at a ceiling.
func LimitReached(kind enums.UsageKind, d Decision) error {
	msg := "Plan limit reached"
	if kind == enums.UsageKindUploaded {
		msg = "Upload limit reached"
	}
	return pkgerrors.New(pkgerrors.CodePlanLimit, msg).WithDetails(LimitDetails{
		CurrentCount: d.CurrentCount,
		MaxCount:     d.MaxCount,
	})
}
