package cellar

import (
	"testing"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/cellarwise/cellarwise-backend/pkg/enums"
)

func TestSummarizeEmpty(t *testing.T) {
	out := Summarize(nil)
	if out.TotalWines != 0 || len(out.ByType) != 0 || out.AverageRating != nil || out.VintageRange != nil {
		t.Fatalf("unexpected empty summary %+v", out)
	}
}

func TestSummarizeAggregates(t *testing.T) {
	v := func(i int) *int { return &i }
	r := func(f float64) *float64 { return &f }
	wines := []models.SavedWine{
		{WineType: "Red", Region: "Bordeaux", Vintage: v(2010), Rating: r(4), Source: enums.WineSourceRecommendation},
		{WineType: "Red", Region: "Bordeaux", Vintage: v(2018), Rating: r(5), Source: enums.WineSourceUpload},
		{WineType: "White", Region: "", Source: enums.WineSourceRecommendation},
	}

	out := Summarize(wines)
	if out.TotalWines != 3 {
		t.Fatalf("expected 3 wines, got %d", out.TotalWines)
	}
	if out.ByType[0].WineType != "Red" || out.ByType[0].Percentage.String() != "66.7" {
		t.Fatalf("unexpected leading type share %+v", out.ByType[0])
	}
	if out.ByType[1].Percentage.String() != "33.3" {
		t.Fatalf("unexpected second type share %+v", out.ByType[1])
	}
	if out.TopRegions[0].Region != "Bordeaux" || out.TopRegions[1].Region != "Unknown" {
		t.Fatalf("unexpected regions %+v", out.TopRegions)
	}
	if out.AverageRating == nil || out.AverageRating.String() != "4.5" {
		t.Fatalf("unexpected average %v", out.AverageRating)
	}
	if out.VintageRange == nil || out.VintageRange.Oldest != 2010 || out.VintageRange.Newest != 2018 {
		t.Fatalf("unexpected vintage range %+v", out.VintageRange)
	}
	if out.BySource["recommendation"] != 2 || out.BySource["upload"] != 1 {
		t.Fatalf("unexpected source split %+v", out.BySource)
	}
}

func TestSummarizeCapsRegions(t *testing.T) {
	var wines []models.SavedWine
	for _, region := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		wines = append(wines, models.SavedWine{Region: region, WineType: "Red"})
	}
	if got := len(Summarize(wines).TopRegions); got != topRegionsLimit {
		t.Fatalf("expected %d regions, got %d", topRegionsLimit, got)
	}
}
