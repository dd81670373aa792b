package users

import (
	"context"
	"testing"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func TestRepositoryInsertIfAbsentKeepsFirstRow(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.InsertIfAbsent(ctx, &models.User{ID: "user_1", Email: "first@example.com", SubscriptionPlan: enums.SubscriptionPlanFree}))
	require.NoError(t, repo.InsertIfAbsent(ctx, &models.User{ID: "user_1", Email: "second@example.com", SubscriptionPlan: enums.SubscriptionPlanPremium}))

	user, err := repo.FindByID(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "first@example.com", user.Email)
	require.Equal(t, enums.SubscriptionPlanFree, user.SubscriptionPlan)
}

func TestRepositoryFindByIDMissing(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	user, err := repo.FindByID(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestRepositorySubscriptionColumns(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.InsertIfAbsent(ctx, &models.User{ID: "user_1", SubscriptionPlan: enums.SubscriptionPlanFree}))

	require.NoError(t, repo.SetStripeCustomer(ctx, "user_1", "cus_123"))
	subID := "sub_123"
	require.NoError(t, repo.SetStripeSubscription(ctx, "user_1", &subID, enums.SubscriptionPlanPremium))

	byCustomer, err := repo.FindByStripeCustomer(ctx, "cus_123")
	require.NoError(t, err)
	require.NotNil(t, byCustomer)
	require.Equal(t, "user_1", byCustomer.ID)
	require.True(t, byCustomer.IsPremium())
	require.True(t, byCustomer.HasSubscription())

	require.NoError(t, repo.SetStripeSubscription(ctx, "user_1", nil, enums.SubscriptionPlanFree))
	cleared, err := repo.FindByID(ctx, "user_1")
	require.NoError(t, err)
	require.False(t, cleared.HasSubscription())
	require.Equal(t, "cus_123", *cleared.StripeCustomerID)

	require.ErrorIs(t, repo.SetPlan(ctx, "missing", enums.SubscriptionPlanPremium), gorm.ErrRecordNotFound)
}

func TestRepositoryLockByIDInsideTx(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.InsertIfAbsent(ctx, &models.User{ID: "user_1", SubscriptionPlan: enums.SubscriptionPlanFree}))

	err := db.Transaction(func(tx *gorm.DB) error {
		user, err := repo.WithTx(tx).LockByID(ctx, "user_1")
		require.NoError(t, err)
		require.NotNil(t, user)
		return nil
	})
	require.NoError(t, err)
}
