package cellar

import (
	"sort"
	"strings"

	"github.com/cellarwise/cellarwise-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

const topRegionsLimit = 5

type TypeShare struct {
	WineType   string          `json:"wineType"`
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

type VintageRange struct {
	Oldest int `json:"oldest"`
	Newest int `json:"newest"`
}

// Analytics is the aggregate view of a cellar.
type Analytics struct {
	TotalWines    int              `json:"totalWines"`
	ByType        []TypeShare      `json:"byType"`
	TopRegions    []RegionCount    `json:"topRegions"`
	AverageRating *decimal.Decimal `json:"averageRating"`
	VintageRange  *VintageRange    `json:"vintageRange"`
	BySource      map[string]int   `json:"bySource"`
}

// Summarize aggregates wines. Blank types and regions are bucketed as
// "Unknown"; percentages are rounded to one decimal place.
func Summarize(wines []models.SavedWine) *Analytics {
	out := &Analytics{
		TotalWines: len(wines),
		ByType:     []TypeShare{},
		TopRegions: []RegionCount{},
		BySource:   map[string]int{},
	}
	if len(wines) == 0 {
		return out
	}

	types := map[string]int{}
	regions := map[string]int{}
	ratingSum := decimal.Zero
	rated := 0
	for _, w := range wines {
		types[bucket(w.WineType)]++
		regions[bucket(w.Region)]++
		out.BySource[w.Source.String()]++
		if w.Rating != nil {
			ratingSum = ratingSum.Add(decimal.NewFromFloat(*w.Rating))
			rated++
		}
		if w.Vintage != nil {
			if out.VintageRange == nil {
				out.VintageRange = &VintageRange{Oldest: *w.Vintage, Newest: *w.Vintage}
			}
			if *w.Vintage < out.VintageRange.Oldest {
				out.VintageRange.Oldest = *w.Vintage
			}
			if *w.Vintage > out.VintageRange.Newest {
				out.VintageRange.Newest = *w.Vintage
			}
		}
	}

	total := decimal.NewFromInt(int64(len(wines)))
	for wineType, n := range types {
		out.ByType = append(out.ByType, TypeShare{
			WineType:   wineType,
			Count:      n,
			Percentage: decimal.NewFromInt(int64(n * 100)).Div(total).Round(1),
		})
	}
	sort.Slice(out.ByType, func(i, j int) bool {
		if out.ByType[i].Count != out.ByType[j].Count {
			return out.ByType[i].Count > out.ByType[j].Count
		}
		return out.ByType[i].WineType < out.ByType[j].WineType
	})

	for region, n := range regions {
		out.TopRegions = append(out.TopRegions, RegionCount{Region: region, Count: n})
	}
	sort.Slice(out.TopRegions, func(i, j int) bool {
		if out.TopRegions[i].Count != out.TopRegions[j].Count {
			return out.TopRegions[i].Count > out.TopRegions[j].Count
		}
		return out.TopRegions[i].Region < out.TopRegions[j].Region
	})
	if len(out.TopRegions) > topRegionsLimit {
		out.TopRegions = out.TopRegions[:topRegionsLimit]
	}

	if rated > 0 {
		avg := ratingSum.Div(decimal.NewFromInt(int64(rated))).Round(1)
		out.AverageRating = &avg
	}
	return out
}

func bucket(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "Unknown"
	}
	return v
}
