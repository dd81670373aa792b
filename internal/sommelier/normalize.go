package sommelier

import (
	"strings"
	"time"
)

const (
	unknown       = "Unknown"
	minConfidence = 1
	maxConfidence = 100

	maxRecommendations = 3
	oldestVintage      = 1800
)

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return unknown
	}
	return v
}

func clampConfidence(v int) int {
	if v < minConfidence {
		return minConfidence
	}
	if v > maxConfidence {
		return maxConfidence
	}
	return v
}

// plausibleYear drops years the model could not have read off a label.
func plausibleYear(y *int, now time.Time) *int {
	if y == nil {
		return nil
	}
	if *y < oldestVintage || *y > now.Year()+100 {
		return nil
	}
	v := *y
	return &v
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeRecommendations(in []recommendationPayload) []Recommendation {
	out := make([]Recommendation, 0, maxRecommendations)
	for _, r := range in {
		name := strings.TrimSpace(r.WineName)
		if name == "" {
			continue
		}
		out = append(out, Recommendation{
			WineName:    name,
			WineType:    orUnknown(r.WineType),
			Region:      orUnknown(r.Region),
			Vintage:     r.Vintage.ptr(),
			Description: strings.TrimSpace(r.Description),
			PriceRange:  strings.TrimSpace(r.PriceRange),
			ABV:         strings.TrimSpace(r.ABV),
			Rating:      r.Rating,
		})
		if len(out) == maxRecommendations {
			break
		}
	}
	return out
}

func normalizeSuggestions(in []PairingSuggestion) []PairingSuggestion {
	out := make([]PairingSuggestion, 0, len(in))
	for _, s := range in {
		s.WineName = strings.TrimSpace(s.WineName)
		if s.WineName == "" {
			continue
		}
		s.WineType = orUnknown(s.WineType)
		s.Region = orUnknown(s.Region)
		out = append(out, s)
	}
	return out
}

func normalizeWineAnalysis(a *WineAnalysis, now time.Time) *WineAnalysis {
	a.WineName = orUnknown(a.WineName)
	a.WineType = orUnknown(a.WineType)
	a.Region = orUnknown(a.Region)
	a.Vintage = plausibleYear(a.Vintage, now)
	a.OptimalDrinkingStart = plausibleYear(a.OptimalDrinkingStart, now)
	a.OptimalDrinkingEnd = plausibleYear(a.OptimalDrinkingEnd, now)
	a.PeakYearsStart = plausibleYear(a.PeakYearsStart, now)
	a.PeakYearsEnd = plausibleYear(a.PeakYearsEnd, now)
	a.Analysis = strings.TrimSpace(a.Analysis)
	a.EstimatedValue = strings.TrimSpace(a.EstimatedValue)
	a.ABV = strings.TrimSpace(a.ABV)
	a.Confidence = clampConfidence(a.Confidence)
	a.Fallback = false
	return a
}
