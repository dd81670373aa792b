package sommelier

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// looseInt accepts numbers, numeric strings ("2019", "85%") and null.
// Anything else decodes to unset instead of failing the whole payload.
type looseInt struct {
	v *int
}

func (l *looseInt) UnmarshalJSON(b []byte) error {
	l.v = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n := int(math.Round(f))
		l.v = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	digits := strings.TrimFunc(strings.TrimSpace(s), func(r rune) bool { return r < '0' || r > '9' })
	if n, err := strconv.Atoi(digits); err == nil {
		l.v = &n
	}
	return nil
}

func (l looseInt) ptr() *int { return l.v }

func (l looseInt) or(def int) int {
	if l.v == nil {
		return def
	}
	return *l.v
}

type labelPayload struct {
	WineName             string   `json:"wineName"`
	WineType             string   `json:"wineType"`
	Region               string   `json:"region"`
	Vintage              looseInt `json:"vintage"`
	OptimalDrinkingStart looseInt `json:"optimalDrinkingStart"`
	OptimalDrinkingEnd   looseInt `json:"optimalDrinkingEnd"`
	PeakYearsStart       looseInt `json:"peakYearsStart"`
	PeakYearsEnd         looseInt `json:"peakYearsEnd"`
	Analysis             string   `json:"analysis"`
	EstimatedValue       string   `json:"estimatedValue"`
	ABV                  string   `json:"abv"`
	Confidence           looseInt `json:"confidence"`
}

func (p labelPayload) analysis() *WineAnalysis {
	return &WineAnalysis{
		WineName:             p.WineName,
		WineType:             p.WineType,
		Region:               p.Region,
		Vintage:              p.Vintage.ptr(),
		OptimalDrinkingStart: p.OptimalDrinkingStart.ptr(),
		OptimalDrinkingEnd:   p.OptimalDrinkingEnd.ptr(),
		PeakYearsStart:       p.PeakYearsStart.ptr(),
		PeakYearsEnd:         p.PeakYearsEnd.ptr(),
		Analysis:             p.Analysis,
		EstimatedValue:       p.EstimatedValue,
		ABV:                  p.ABV,
		Confidence:           p.Confidence.or(0),
	}
}

type recommendationPayload struct {
	WineName    string   `json:"wineName"`
	WineType    string   `json:"wineType"`
	Region      string   `json:"region"`
	Vintage     looseInt `json:"vintage"`
	Description string   `json:"description"`
	PriceRange  string   `json:"priceRange"`
	ABV         string   `json:"abv"`
	Rating      *float64 `json:"rating"`
}

type mealPayload struct {
	Dishes          []string            `json:"dishes"`
	Cuisine         string              `json:"cuisine"`
	Description     string              `json:"description"`
	Recommendations []PairingSuggestion `json:"recommendations"`
	Confidence      looseInt            `json:"confidence"`
}

type menuPayload struct {
	Answer          string              `json:"answer"`
	Wines           []MenuWine          `json:"wines"`
	Recommendations []PairingSuggestion `json:"recommendations"`
	Confidence      looseInt            `json:"confidence"`
}
