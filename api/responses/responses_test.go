package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/types"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}
	if body := decode(t, w); body["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "bad input" || body.Error.Details == nil {
		t.Fatalf("expected message and details in public payload, got %+v", body.Error)
	}
}

func TestWriteErrorFlattensPlanLimit(t *testing.T) {
	w := httptest.NewRecorder()
	details := struct {
		CurrentCount int64 `json:"currentCount"`
		MaxCount     int   `json:"maxCount"`
	}{3, 3}
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodePlanLimit, "Upload limit reached").WithDetails(details))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	body := decode(t, w)
	if body["message"] != "Upload limit reached" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if body["currentCount"] != float64(3) || body["maxCount"] != float64(3) {
		t.Fatalf("expected flattened counts, got %v", body)
	}
	if _, ok := body["error"].(map[string]any); !ok {
		t.Fatalf("expected nested error envelope, got %v", body)
	}
}

func TestWriteErrorFlattensPremiumRequired(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodePremiumRequired, "Premium subscription required").
		WithDetails(map[string]any{"upgrade": true})
	WriteError(context.Background(), nil, w, err)

	body := decode(t, w)
	if w.Code != http.StatusForbidden || body["upgrade"] != true {
		t.Fatalf("expected 403 with upgrade flag, got %d %v", w.Code, body)
	}
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("pq: connection refused"))

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusInternalServerError || body.Error.Message != "internal server error" {
		t.Fatalf("unexpected response %d %+v", w.Code, body.Error)
	}
}

func TestUpstreamCauseExposedOnlyWhenEnabled(t *testing.T) {
	err := pkgerrors.Wrap(pkgerrors.CodeUpstream, errors.New("card_declined"), "failed to pause subscription")

	ExposeUpstreamErrors(false)
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, err)
	var hidden types.ErrorEnvelope
	_ = json.NewDecoder(w.Body).Decode(&hidden)
	if hidden.Error.Details != nil {
		t.Fatalf("expected no upstream details, got %v", hidden.Error.Details)
	}
	if hidden.Error.Message != "failed to pause subscription" {
		t.Fatalf("unexpected message %q", hidden.Error.Message)
	}

	ExposeUpstreamErrors(true)
	t.Cleanup(func() { ExposeUpstreamErrors(false) })
	w = httptest.NewRecorder()
	WriteError(context.Background(), nil, w, err)
	var shown types.ErrorEnvelope
	_ = json.NewDecoder(w.Body).Decode(&shown)
	details, _ := shown.Error.Details.(map[string]any)
	if details["upstream"] != "card_declined" {
		t.Fatalf("expected upstream cause, got %v", shown.Error.Details)
	}
}
