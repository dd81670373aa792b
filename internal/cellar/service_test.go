package cellar

import (
	"context"
	"testing"

	"github.com/cellarwise/cellarwise-backend/internal/usage"
	"github.com/cellarwise/cellarwise-backend/internal/users"
	"github.com/cellarwise/cellarwise-backend/pkg/db"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := "file:cellar_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.SavedWine{}, &models.UploadedWine{}))

	guard, err := usage.NewService(usage.ServiceParams{
		DB:                conn,
		TransactionRunner: db.Wrap(conn),
		Users:             users.NewRepository(conn),
	})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), guard)
	require.NoError(t, err)
	return svc, conn
}

func TestSaveFreePlanScenario(t *testing.T) {
	svc, conn := newTestService(t)
	user := &models.User{ID: "user_1", SubscriptionPlan: enums.SubscriptionPlanFree}
	require.NoError(t, conn.Create(user).Error)
	ctx := context.Background()

	for _, name := range []string{"Barolo", "Rioja", "Chablis"} {
		wine, err := svc.Save(ctx, user, SaveWineInput{WineName: name, WineType: "red"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, wine.ID)
		assert.Equal(t, enums.WineSourceRecommendation, wine.Source)
	}

	_, err := svc.Save(ctx, user, SaveWineInput{WineName: "Sancerre", WineType: "white"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePlanLimit, typed.Code())
	assert.Equal(t, usage.LimitDetails{CurrentCount: 3, MaxCount: 3}, typed.Details())

	wines, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, wines, 3)
}

func TestSaveValidatesRequiredFields(t *testing.T) {
	svc, conn := newTestService(t)
	user := &models.User{ID: "user_1", SubscriptionPlan: enums.SubscriptionPlanFree}
	require.NoError(t, conn.Create(user).Error)

	_, err := svc.Save(context.Background(), user, SaveWineInput{WineName: "  ", WineType: "red"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteScopesToOwner(t *testing.T) {
	svc, conn := newTestService(t)
	owner := &models.User{ID: "owner", SubscriptionPlan: enums.SubscriptionPlanPremium}
	require.NoError(t, conn.Create(owner).Error)
	ctx := context.Background()

	wine, err := svc.Save(ctx, owner, SaveWineInput{WineName: "Barolo", WineType: "red", Source: "upload"})
	require.NoError(t, err)
	assert.Equal(t, enums.WineSourceUpload, wine.Source)

	err = svc.Delete(ctx, "intruder", wine.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.Delete(ctx, owner.ID, wine.ID))
	err = svc.Delete(ctx, owner.ID, wine.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAnalyticsOverSavedWines(t *testing.T) {
	svc, conn := newTestService(t)
	user := &models.User{ID: "user_1", SubscriptionPlan: enums.SubscriptionPlanPremium}
	require.NoError(t, conn.Create(user).Error)
	ctx := context.Background()

	vintage := 2015
	rating := 92.0
	_, err := svc.Save(ctx, user, SaveWineInput{WineName: "A", WineType: "Red", Region: "Napa", Vintage: &vintage, Rating: &rating})
	require.NoError(t, err)
	_, err = svc.Save(ctx, user, SaveWineInput{WineName: "B", WineType: "White", Region: "Napa"})
	require.NoError(t, err)

	stats, err := svc.Analytics(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalWines)
	assert.Equal(t, []RegionCount{{Region: "Napa", Count: 2}}, stats.TopRegions)
	require.NotNil(t, stats.AverageRating)
	assert.Equal(t, "92", stats.AverageRating.String())
}
