package sommelier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
	"github.com/cellarwise/cellarwise-backend/pkg/metrics"
	"github.com/cellarwise/cellarwise-backend/pkg/openai"
)

const (
	opRecommendations = "recommendations"
	opLabel           = "label_analysis"
	opMealPairing     = "meal_pairing"
	opWineMenu        = "wine_menu"

	outcomeOK       = "ok"
	outcomeFallback = "fallback"
	outcomeError    = "error"
)

// Completer runs a single JSON-mode completion.
type Completer interface {
	CompleteJSON(ctx context.Context, req openai.Request) (string, error)
}

type ServiceParams struct {
	Completer Completer
	// ImageFallback returns a placeholder label analysis instead of an
	// error when the completion fails.
	ImageFallback bool
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	Now           func() time.Time
}

// Service wraps the completion service. Every call is a single attempt.
type Service struct {
	completer     Completer
	imageFallback bool
	metrics       *metrics.Metrics
	logg          *logger.Logger
	now           func() time.Time
}

func NewService(params ServiceParams) *Service {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		completer:     params.Completer,
		imageFallback: params.ImageFallback,
		metrics:       params.Metrics,
		logg:          params.Logger,
		now:           now,
	}
}

// Recommendations never fails on completion errors: it serves the static
// fallback list instead.
func (s *Service) Recommendations(ctx context.Context, query string) (*RecommendationResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}
	result := &RecommendationResult{Query: query, Timestamp: s.now().UTC()}

	var payload struct {
		Recommendations []recommendationPayload `json:"recommendations"`
	}
	err := s.complete(ctx, openai.Request{
		System:      recommendationSystem,
		Prompt:      recommendationPrompt(query),
		MaxTokens:   900,
		Temperature: 0.7,
	}, &payload)
	var recs []Recommendation
	if err == nil {
		recs = normalizeRecommendations(payload.Recommendations)
		if len(recs) == 0 {
			err = fmt.Errorf("no usable recommendations")
		}
	}
	if err != nil {
		s.warn(ctx, opRecommendations, err)
		s.metrics.Completion(opRecommendations, outcomeFallback)
		result.Recommendations = fallbackRecommendations()
		result.Source = SourceFallback
		return result, nil
	}

	s.metrics.Completion(opRecommendations, outcomeOK)
	result.Recommendations = recs
	result.Source = SourceAI
	return result, nil
}

// AnalyzeWineImage reads a label. Failures surface unless the image
// fallback is enabled.
func (s *Service) AnalyzeWineImage(ctx context.Context, img Image) (*WineAnalysis, error) {
	if len(img.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	var out labelPayload
	err := s.complete(ctx, openai.Request{
		System:      labelSystem,
		Prompt:      "Analyze this wine label.",
		Image:       &openai.Image{ContentType: img.ContentType, Data: img.Data},
		MaxTokens:   800,
		Temperature: 0.2,
	}, &out)
	if err != nil {
		if s.imageFallback {
			s.warn(ctx, opLabel, err)
			s.metrics.Completion(opLabel, outcomeFallback)
			return fallbackWineAnalysis(), nil
		}
		s.metrics.Completion(opLabel, outcomeError)
		return nil, upstream(err, "wine analysis failed")
	}
	s.metrics.Completion(opLabel, outcomeOK)
	return normalizeWineAnalysis(out.analysis(), s.now()), nil
}

func (s *Service) AnalyzeMealPairing(ctx context.Context, img Image, kind enums.PairingKind) (*MealPairingAnalysis, error) {
	if len(img.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	if !kind.IsValid() {
		kind = enums.PairingKindMeal
	}
	var payload mealPayload
	err := s.complete(ctx, openai.Request{
		System:      mealSystem,
		Prompt:      pairingPrompt(kind),
		Image:       &openai.Image{ContentType: img.ContentType, Data: img.Data},
		MaxTokens:   1000,
		Temperature: 0.5,
	}, &payload)
	if err != nil {
		s.metrics.Completion(opMealPairing, outcomeError)
		return nil, upstream(err, "meal pairing analysis failed")
	}
	s.metrics.Completion(opMealPairing, outcomeOK)

	return &MealPairingAnalysis{
		AnalysisType:    kind.String(),
		Dishes:          cleanStrings(payload.Dishes),
		Cuisine:         orUnknown(payload.Cuisine),
		Description:     strings.TrimSpace(payload.Description),
		Recommendations: normalizeSuggestions(payload.Recommendations),
		Confidence:      clampConfidence(payload.Confidence.or(0)),
	}, nil
}

func (s *Service) AnalyzeWineMenu(ctx context.Context, img Image, question string) (*MenuAnalysis, error) {
	if len(img.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	question = strings.TrimSpace(question)
	var payload menuPayload
	err := s.complete(ctx, openai.Request{
		System:      menuSystem,
		Prompt:      menuPrompt(question),
		Image:       &openai.Image{ContentType: img.ContentType, Data: img.Data},
		MaxTokens:   1200,
		Temperature: 0.4,
	}, &payload)
	if err != nil {
		s.metrics.Completion(opWineMenu, outcomeError)
		return nil, upstream(err, "wine menu analysis failed")
	}
	s.metrics.Completion(opWineMenu, outcomeOK)

	wines := make([]MenuWine, 0, len(payload.Wines))
	for _, w := range payload.Wines {
		w.Name = strings.TrimSpace(w.Name)
		if w.Name == "" {
			continue
		}
		w.Type = orUnknown(w.Type)
		w.Region = orUnknown(w.Region)
		wines = append(wines, w)
	}
	return &MenuAnalysis{
		Question:        question,
		Answer:          strings.TrimSpace(payload.Answer),
		Wines:           wines,
		Recommendations: normalizeSuggestions(payload.Recommendations),
		Confidence:      clampConfidence(payload.Confidence.or(0)),
	}, nil
}

func (s *Service) complete(ctx context.Context, req openai.Request, dest any) error {
	if s.completer == nil {
		return openai.ErrNotConfigured
	}
	raw, err := s.completer.CompleteJSON(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decode completion: %w", err)
	}
	return nil
}

func (s *Service) warn(ctx context.Context, op string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"operation": op, "error": err.Error()})
	s.logg.Warn(ctx, "sommelier.fallback")
}

func upstream(err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, msg)
}
