package users

import (
	"context"
	"errors"
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	dbtypes "github.com/cellarwise/cellarwise-backend/pkg/db/types"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a user by their identity-provider subject. A missing row
// yields (nil, nil).
func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LockByID reads the user row with FOR UPDATE so concurrent writers for the
// same user serialize behind the caller's transaction.
func (r *Repository) LockByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByStripeCustomer resolves the owner of a billing customer.
func (r *Repository) FindByStripeCustomer(ctx context.Context, customerID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "stripe_customer_id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// InsertIfAbsent creates the row unless one with the same id exists.
func (r *Repository) InsertIfAbsent(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user).Error
}

// ProfileUpdate carries the onboarding columns written by CompleteProfile.
type ProfileUpdate struct {
	DateOfBirth         time.Time
	WineExperienceLevel string
	PreferredWineTypes  []string
	BudgetRange         string
	Location            string
}

func (r *Repository) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) error {
	return r.update(ctx, id, map[string]any{
		"date_of_birth":         p.DateOfBirth,
		"wine_experience_level": p.WineExperienceLevel,
		"preferred_wine_types":  dbtypes.StringList(p.PreferredWineTypes),
		"budget_range":          p.BudgetRange,
		"location":              p.Location,
		"profile_completed":     true,
	})
}

func (r *Repository) SetPlan(ctx context.Context, id string, plan enums.SubscriptionPlan) error {
	return r.update(ctx, id, map[string]any{"subscription_plan": plan})
}

func (r *Repository) SetStripeCustomer(ctx context.Context, id, customerID string) error {
	return r.update(ctx, id, map[string]any{"stripe_customer_id": customerID})
}

// SetStripeSubscription records the subscription id and plan together. A nil
// subscriptionID clears the column.
func (r *Repository) SetStripeSubscription(ctx context.Context, id string, subscriptionID *string, plan enums.SubscriptionPlan) error {
	return r.update(ctx, id, map[string]any{
		"stripe_subscription_id": subscriptionID,
		"subscription_plan":      plan,
	})
}

func (r *Repository) update(ctx context.Context, id string, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
