package sommelier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cellarwise/cellarwise-backend/pkg/enums"
	pkgerrors "github.com/cellarwise/cellarwise-backend/pkg/errors"
	"github.com/cellarwise/cellarwise-backend/pkg/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	raw   string
	err   error
	calls int
	last  openai.Request
}

func (s *stubCompleter) CompleteJSON(_ context.Context, req openai.Request) (string, error) {
	s.calls++
	s.last = req
	return s.raw, s.err
}

var fixedNow = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func newService(c Completer, imageFallback bool) *Service {
	return NewService(ServiceParams{Completer: c, ImageFallback: imageFallback, Now: func() time.Time { return fixedNow }})
}

var label = Image{ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}

func TestRecommendationsFallbackOnFailure(t *testing.T) {
	stub := &stubCompleter{err: errors.New("upstream 500")}
	svc := newService(stub, false)

	res, err := svc.Recommendations(context.Background(), "bold red wine under $30")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "Penfolds Bin 389 Cabernet Shiraz", res.Recommendations[0].WineName)
	assert.Equal(t, "Wolf Blass Black Label Shiraz", res.Recommendations[1].WineName)
	assert.Equal(t, "bold red wine under $30", res.Query)
	assert.Equal(t, fixedNow, res.Timestamp)
	assert.Equal(t, 1, stub.calls, "no retry")
}

func TestRecommendationsFallbackWhenUnconfiguredOrUnusable(t *testing.T) {
	res, err := newService(nil, false).Recommendations(context.Background(), "crisp white")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)

	for _, raw := range []string{`not json`, `{"recommendations":[]}`, `{"recommendations":[{"wineName":"  "}]}`} {
		res, err = newService(&stubCompleter{raw: raw}, false).Recommendations(context.Background(), "crisp white")
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, res.Source, raw)
	}
}

func TestRecommendationsFromCompletion(t *testing.T) {
	stub := &stubCompleter{raw: `{"recommendations":[
		{"wineName":"Catena Malbec","wineType":"Red","region":"Mendoza","vintage":"2021","rating":4.2},
		{"wineName":"Rioja Crianza","wineType":"","vintage":2019},
		{"wineName":"Cotes du Rhone"},
		{"wineName":"Fourth Wine"}
	]}`}
	res, err := newService(stub, false).Recommendations(context.Background(), "  bold red  ")
	require.NoError(t, err)
	assert.Equal(t, SourceAI, res.Source)
	assert.Equal(t, "bold red", res.Query)
	require.Len(t, res.Recommendations, 3)
	assert.Equal(t, 2021, *res.Recommendations[0].Vintage)
	assert.Equal(t, "Unknown", res.Recommendations[1].WineType)
	assert.Contains(t, stub.last.Prompt, "bold red")
	assert.Nil(t, stub.last.Image)
}

func TestRecommendationsRequiresQuery(t *testing.T) {
	_, err := newService(&stubCompleter{}, false).Recommendations(context.Background(), "   ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAnalyzeWineImagePropagatesFailure(t *testing.T) {
	_, err := newService(&stubCompleter{err: errors.New("timeout")}, false).AnalyzeWineImage(context.Background(), label)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstream))
}

func TestAnalyzeWineImageFallbackPolicy(t *testing.T) {
	res, err := newService(&stubCompleter{err: errors.New("timeout")}, true).AnalyzeWineImage(context.Background(), label)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, "Unknown", res.WineName)
}

func TestAnalyzeWineImageNormalizes(t *testing.T) {
	stub := &stubCompleter{raw: `{"wineName":"Chateau Margaux","wineType":"Red","vintage":"2015",
		"optimalDrinkingStart":2025,"optimalDrinkingEnd":"2060","peakYearsStart":1200,"peakYearsEnd":null,
		"analysis":" Classic Margaux. ","confidence":"250"}`}
	res, err := newService(stub, false).AnalyzeWineImage(context.Background(), label)
	require.NoError(t, err)
	assert.Equal(t, "Chateau Margaux", res.WineName)
	assert.Equal(t, "Unknown", res.Region)
	assert.Equal(t, 2015, *res.Vintage)
	assert.Equal(t, 2060, *res.OptimalDrinkingEnd)
	assert.Nil(t, res.PeakYearsStart)
	assert.Nil(t, res.PeakYearsEnd)
	assert.Equal(t, "Classic Margaux.", res.Analysis)
	assert.Equal(t, 100, res.Confidence)
	require.NotNil(t, stub.last.Image)
	assert.Equal(t, "image/jpeg", stub.last.Image.ContentType)
}

func TestAnalyzeWineImageRequiresData(t *testing.T) {
	_, err := newService(&stubCompleter{}, true).AnalyzeWineImage(context.Background(), Image{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAnalyzeMealPairingDefaults(t *testing.T) {
	stub := &stubCompleter{raw: `{"dishes":["steak"," ",""],"recommendations":[{"wineName":"Barolo"},{"wineName":""}],"confidence":-4}`}
	res, err := newService(stub, false).AnalyzeMealPairing(context.Background(), label, enums.PairingKindMenu)
	require.NoError(t, err)
	assert.Equal(t, "menu", res.AnalysisType)
	assert.Equal(t, []string{"steak"}, res.Dishes)
	assert.Equal(t, "Unknown", res.Cuisine)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "Unknown", res.Recommendations[0].Region)
	assert.Equal(t, 1, res.Confidence)
	assert.Contains(t, stub.last.Prompt, "menu")

	empty, err := newService(&stubCompleter{raw: `{}`}, false).AnalyzeMealPairing(context.Background(), label, "")
	require.NoError(t, err)
	assert.Equal(t, "meal", empty.AnalysisType)
	assert.NotNil(t, empty.Dishes)
	assert.NotNil(t, empty.Recommendations)
}

func TestAnalyzeMealPairingSurfacesFailure(t *testing.T) {
	_, err := newService(&stubCompleter{raw: `[`}, false).AnalyzeMealPairing(context.Background(), label, enums.PairingKindMeal)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstream))
}

func TestAnalyzeWineMenu(t *testing.T) {
	stub := &stubCompleter{raw: `{"answer":" Order the Chianti. ","wines":[{"name":"Chianti Classico","price":"$48"},{"name":""}],"confidence":"85%"}`}
	res, err := newService(stub, false).AnalyzeWineMenu(context.Background(), label, " best value? ")
	require.NoError(t, err)
	assert.Equal(t, "best value?", res.Question)
	assert.Equal(t, "Order the Chianti.", res.Answer)
	require.Len(t, res.Wines, 1)
	assert.Equal(t, "Unknown", res.Wines[0].Type)
	assert.Equal(t, 85, res.Confidence)
	assert.Equal(t, "best value?", stub.last.Prompt)

	_, err = newService(&stubCompleter{}, false).AnalyzeWineMenu(context.Background(), label, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstream), "empty completion content is not valid JSON")
}
