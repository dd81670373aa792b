package sommelier

func floatPtr(v float64) *float64 { return &v }

// fallbackRecommendations is served whenever the completion service fails.
func fallbackRecommendations() []Recommendation {
	return []Recommendation{
		{
			WineName:    "Penfolds Bin 389 Cabernet Shiraz",
			WineType:    "Red",
			Region:      "South Australia",
			Description: "Rich and structured with dark berry fruit, mocha and firm tannins. A dependable pick for bold red lovers.",
			PriceRange:  "$60-$80",
			ABV:         "14.5%",
			Rating:      floatPtr(4.5),
		},
		{
			WineName:    "Wolf Blass Black Label Shiraz",
			WineType:    "Red",
			Region:      "Barossa Valley, South Australia",
			Description: "Concentrated plum and blackberry with spice and polished oak, built for grilled and roasted meats.",
			PriceRange:  "$100-$150",
			ABV:         "14.5%",
			Rating:      floatPtr(4.6),
		},
	}
}

func fallbackWineAnalysis() *WineAnalysis {
	return &WineAnalysis{
		WineName:   unknown,
		WineType:   unknown,
		Region:     unknown,
		Analysis:   "We could not analyze this label automatically. Edit the details to complete the entry.",
		Confidence: minConfidence,
		Fallback:   true,
	}
}
