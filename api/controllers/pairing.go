package controllers

import (
	"context"
	"net/http"

	"github.com/cellarwise/cellarwise-backend/api/responses"
	"github.com/cellarwise/cellarwise-backend/api/validators"
	"github.com/cellarwise/cellarwise-backend/internal/sommelier"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
)

const (
	pairingImageField = "image"
	maxQuestionLen    = 500
)

type pairingAnalyzer interface {
	AnalyzeMealPairing(ctx context.Context, img sommelier.Image, kind enums.PairingKind) (*sommelier.MealPairingAnalysis, error)
	AnalyzeWineMenu(ctx context.Context, img sommelier.Image, question string) (*sommelier.MenuAnalysis, error)
}

// MealPairing suggests wines for a photographed meal or menu. Premium only;
// the gate is applied by the router.
func MealPairing(svc pairingAnalyzer, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := validators.ParseImageForm(w, r, pairingImageField, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParsePairingKind(validators.FormValue(r, "analysisType", 16))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "analysisType must be meal or menu"))
			return
		}
		out, err := svc.AnalyzeMealPairing(r.Context(), toImage(img), kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// WineMenu answers a question about a photographed wine list.
func WineMenu(svc pairingAnalyzer, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := validators.ParseImageForm(w, r, pairingImageField, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		question := validators.FormValue(r, "question", maxQuestionLen)
		out, err := svc.AnalyzeWineMenu(r.Context(), toImage(img), question)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
