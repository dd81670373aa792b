package sommelier

import "time"

// Image is an uploaded photo handed to the vision model.
type Image struct {
	ContentType string
	Data        []byte
}

// Recommendation mirrors the save-to-cellar fields so a client can save a
// suggestion as-is.
type Recommendation struct {
	WineName    string   `json:"wineName"`
	WineType    string   `json:"wineType"`
	Region      string   `json:"region"`
	Vintage     *int     `json:"vintage,omitempty"`
	Description string   `json:"description"`
	PriceRange  string   `json:"priceRange"`
	ABV         string   `json:"abv"`
	Rating      *float64 `json:"rating,omitempty"`
}

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

type RecommendationResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	Timestamp       time.Time        `json:"timestamp"`
	Source          string           `json:"source"`
	Query           string           `json:"query"`
}

// WineAnalysis is what the vision model reads off a label.
type WineAnalysis struct {
	WineName             string `json:"wineName"`
	WineType             string `json:"wineType"`
	Region               string `json:"region"`
	Vintage              *int   `json:"vintage"`
	OptimalDrinkingStart *int   `json:"optimalDrinkingStart"`
	OptimalDrinkingEnd   *int   `json:"optimalDrinkingEnd"`
	PeakYearsStart       *int   `json:"peakYearsStart"`
	PeakYearsEnd         *int   `json:"peakYearsEnd"`
	Analysis             string `json:"analysis"`
	EstimatedValue       string `json:"estimatedValue"`
	ABV                  string `json:"abv"`
	Confidence           int    `json:"confidence"`
	Fallback             bool   `json:"fallback,omitempty"`
}

type PairingSuggestion struct {
	WineName   string `json:"wineName"`
	WineType   string `json:"wineType"`
	Region     string `json:"region"`
	PriceRange string `json:"priceRange"`
	Reason     string `json:"reason"`
}

// MealPairingAnalysis describes a plated meal or a food menu plus wines to
// go with it.
type MealPairingAnalysis struct {
	AnalysisType    string              `json:"analysisType"`
	Dishes          []string            `json:"dishes"`
	Cuisine         string              `json:"cuisine"`
	Description     string              `json:"description"`
	Recommendations []PairingSuggestion `json:"recommendations"`
	Confidence      int                 `json:"confidence"`
}

type MenuWine struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Region string `json:"region"`
	Price  string `json:"price"`
	Notes  string `json:"notes"`
}

// MenuAnalysis answers a question about a restaurant wine list.
type MenuAnalysis struct {
	Question        string              `json:"question"`
	Answer          string              `json:"answer"`
	Wines           []MenuWine          `json:"wines"`
	Recommendations []PairingSuggestion `json:"recommendations"`
	Confidence      int                 `json:"confidence"`
}
