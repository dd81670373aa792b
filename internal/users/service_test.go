package users

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/auth"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"gorm.io/gorm"
)

type stubRepo struct {
	mu       sync.Mutex
	users    map[string]*models.User
	inserts  int
	findErr  error
	profiles map[string]ProfileUpdate
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[string]*models.User{}, profiles: map[string]ProfileUpdate{}}
}

func (s *stubRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	if u, ok := s.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, nil
}

func (s *stubRepo) InsertIfAbsent(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if _, ok := s.users[user.ID]; ok {
		return nil
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *stubRepo) UpdateProfile(_ context.Context, id string, p ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	dob := p.DateOfBirth
	u.DateOfBirth = &dob
	u.WineExperienceLevel = p.WineExperienceLevel
	u.PreferredWineTypes = p.PreferredWineTypes
	u.ProfileCompleted = true
	s.profiles[id] = p
	return nil
}

type stubProfiles struct {
	profile *auth.Profile
	err     error
}

func (s stubProfiles) Profile(context.Context, string) (*auth.Profile, error) {
	return s.profile, s.err
}

func TestEnsureUserProvisionsFromProfileSource(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Profiles: stubProfiles{profile: &auth.Profile{Email: "ana@example.com", FirstName: "Ana", ImageURL: "https://img"}},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	user, err := svc.EnsureUser(context.Background(), &auth.Identity{Subject: "user_1"})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if user.Email != "ana@example.com" || user.FirstName != "Ana" || user.ProfileImageURL != "https://img" {
		t.Fatalf("unexpected profile %+v", user)
	}
	if user.SubscriptionPlan != enums.SubscriptionPlanFree || user.ProfileCompleted {
		t.Fatalf("expected free plan and incomplete profile, got %+v", user)
	}
}

func TestEnsureUserFallsBackToClaims(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(ServiceParams{Repo: repo, Profiles: stubProfiles{err: errors.New("clerk down")}})

	user, err := svc.EnsureUser(context.Background(), &auth.Identity{Subject: "user_1", Email: "claims@example.com", LastName: "Lee"})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if user.Email != "claims@example.com" || user.LastName != "Lee" {
		t.Fatalf("expected claim profile, got %+v", user)
	}
}

func TestEnsureUserReturnsExistingWithoutInsert(t *testing.T) {
	repo := newStubRepo()
	repo.users["user_1"] = &models.User{ID: "user_1", SubscriptionPlan: enums.SubscriptionPlanPremium}
	svc, _ := NewService(ServiceParams{Repo: repo})

	user, err := svc.EnsureUser(context.Background(), &auth.Identity{Subject: "user_1"})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if !user.IsPremium() || repo.inserts != 0 {
		t.Fatalf("expected existing premium user and no insert, inserts=%d", repo.inserts)
	}
}

func TestEnsureUserConcurrentFirstRequestsConverge(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(ServiceParams{Repo: repo})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.EnsureUser(context.Background(), &auth.Identity{Subject: "user_1"}); err != nil {
				t.Errorf("ensure user: %v", err)
			}
		}()
	}
	wg.Wait()
	if len(repo.users) != 1 {
		t.Fatalf("expected a single row, got %d", len(repo.users))
	}
}

func TestEnsureUserRejectsEmptySubject(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: newStubRepo()})
	_, err := svc.EnsureUser(context.Background(), &auth.Identity{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCompleteProfileEnforcesMinimumAge(t *testing.T) {
	repo := newStubRepo()
	repo.users["user_1"] = &models.User{ID: "user_1"}
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc, _ := NewService(ServiceParams{Repo: repo, Now: func() time.Time { return now }})

	_, err := svc.CompleteProfile(context.Background(), "user_1", ProfileInput{DateOfBirth: "2004-06-16", WineExperienceLevel: "beginner"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for 20 year old, got %v", err)
	}

	user, err := svc.CompleteProfile(context.Background(), "user_1", ProfileInput{
		DateOfBirth:         "2004-06-15",
		WineExperienceLevel: "beginner",
		PreferredWineTypes:  []string{" red ", ""},
	})
	if err != nil {
		t.Fatalf("complete profile: %v", err)
	}
	if !user.ProfileCompleted || len(user.PreferredWineTypes) != 1 || user.PreferredWineTypes[0] != "red" {
		t.Fatalf("unexpected profile %+v", user)
	}
}

func TestCompleteProfileErrors(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: newStubRepo()})
	_, err := svc.CompleteProfile(context.Background(), "user_1", ProfileInput{DateOfBirth: "15/06/1990"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.CompleteProfile(context.Background(), "missing", ProfileInput{DateOfBirth: "1990-01-01"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]int{
		"2004-03-01": 21,
		"2004-03-02": 20,
		"2004-02-29": 21,
	}
	for raw, want := range cases {
		dob, _ := time.Parse(dateLayout, raw)
		if got := age(dob, now); got != want {
			t.Fatalf("age(%s) = %d, want %d", raw, got, want)
		}
	}
}
