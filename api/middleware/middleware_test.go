package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/auth"
	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	identity *auth.Identity
	err      error
}

func (s stubVerifier) Verify(token string) (*auth.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

type stubProvisioner struct {
	user  *models.User
	err   error
	calls int
}

func (s *stubProvisioner) EnsureUser(_ context.Context, identity *auth.Identity) (*models.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func okHandler(captured **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = UserFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestAuthRejectsMissingToken(t *testing.T) {
	prov := &stubProvisioner{user: &models.User{ID: "user_1"}}
	handler := Auth(stubVerifier{identity: &auth.Identity{Subject: "user_1"}}, prov, nil)(okHandler(nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cellar/save", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, prov.calls)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	prov := &stubProvisioner{user: &models.User{ID: "user_1"}}
	handler := Auth(stubVerifier{err: errors.New("token is expired")}, prov, nil)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeUnauthorized), errorCode(t, rec))
	assert.Zero(t, prov.calls)
}

func TestAuthNotConfigured(t *testing.T) {
	handler := Auth(nil, &stubProvisioner{}, nil)(okHandler(nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthProvisionsAndSeedsUser(t *testing.T) {
	user := &models.User{ID: "user_1", SubscriptionPlan: enums.SubscriptionPlanFree}
	prov := &stubProvisioner{user: user}
	var captured *models.User
	handler := Auth(stubVerifier{identity: &auth.Identity{Subject: "user_1"}}, prov, nil)(okHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Same(t, user, captured)
	assert.Equal(t, 1, prov.calls)
}

func TestAuthSurfacesProvisioningFailure(t *testing.T) {
	prov := &stubProvisioner{err: pkgerrors.New(pkgerrors.CodeInternal, "db down")}
	handler := Auth(stubVerifier{identity: &auth.Identity{Subject: "user_1"}}, prov, nil)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequirePremium(t *testing.T) {
	handler := RequirePremium(nil)(okHandler(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-wine-menu", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: "u", SubscriptionPlan: enums.SubscriptionPlanFree}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["upgrade"])
	assert.Equal(t, "Premium subscription required", body["message"])

	req = httptest.NewRequest(http.MethodPost, "/api/analyze-wine-menu", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: "u", SubscriptionPlan: enums.SubscriptionPlanPremium}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	ttl    time.Duration
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	key := f.RateLimitKey(scope)
	f.counts[key]++
	return f.counts[key] <= limit, f.counts[key], nil
}

func (f *fakeRateStore) RateLimitKey(scope string) string {
	return "rl:" + scope
}

func (f *fakeRateStore) TTL(_ context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ttl == 0 {
		return -1, nil
	}
	return f.ttl, nil
}

func TestRateLimitIPLimitTriggers(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("general", time.Minute, 1, 0), newFakeRateStore(), nil)(okHandler(nil))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/cellar", nil)
		req.RemoteAddr = "5.6.7.8:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i == 0 {
			assert.Equal(t, http.StatusOK, rec.Code)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeRateLimit), errorCode(t, rec))
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimitRetryAfterUsesRemainingWindow(t *testing.T) {
	store := newFakeRateStore()
	store.ttl = 42 * time.Second
	handler := RateLimit(NewRateLimitPolicy("upload", time.Hour, 1, 0), store, nil)(okHandler(nil))

	var rec *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/upload/analyze", nil)
		req.RemoteAddr = "5.6.7.8:1234"
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
}

func TestRateLimitEmailLimitKeepsBody(t *testing.T) {
	policy := NewRateLimitPolicy("email_signup", time.Hour, 0, 2)
	var bodies []string
	handler := RateLimit(policy, newFakeRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		bodies = append(bodies, in.Email)
		w.WriteHeader(http.StatusOK)
	}))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/email-signup", strings.NewReader(`{"email":"Ana@Example.com"}`))
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, []string{"Ana@Example.com", "Ana@Example.com"}, bodies)
}

func TestRateLimitFailsOpen(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis down")
	handler := RateLimit(NewRateLimitPolicy("general", time.Minute, 1, 0), store, nil)(okHandler(nil))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", " 9.9.9.9 , 10.0.0.1")
	assert.Equal(t, "9.9.9.9", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "7.7.7.7:80"
	assert.Equal(t, "7.7.7.7", clientIP(req))
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDEchoesOrMints(t *testing.T) {
	handler := RequestID(nil)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36)
}
