package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

func valueConfig() config.Value {
	return config.Value{
		MinEdge:          0.03,
		Bankroll:         1000,
		KellyMultiplier:  0.25,
		MaxStakeFraction: 0.05,
		HighMarginPct:    8.0,
		MinOdds:          1.10,
		MaxOdds:          15.0,
	}
}

func resultPrediction(home, draw, away float64) domain.Prediction {
	return domain.Prediction{
		MatchID:     "m1",
		HomeTeam:    "ARS",
		AwayTeam:    "CHE",
		Result:      domain.Prob3{Home: home, Draw: draw, Away: away},
		ResultValid: true,
		Confidence:  80,
	}
}

func resultQuotes(bookmaker string, home, draw, away float64) []domain.OddsQuote {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return []domain.OddsQuote{
		{MatchID: "m1", Bookmaker: bookmaker, Market: domain.MarketResult, Outcome: domain.OutcomeHome, Decimal: home, Timestamp: ts},
		{MatchID: "m1", Bookmaker: bookmaker, Market: domain.MarketResult, Outcome: domain.OutcomeDraw, Decimal: draw, Timestamp: ts},
		{MatchID: "m1", Bookmaker: bookmaker, Market: domain.MarketResult, Outcome: domain.OutcomeAway, Decimal: away, Timestamp: ts},
	}
}

func TestEvaluateDetectsValue(t *testing.T) {
	engine := NewEngine(valueConfig())
	pred := resultPrediction(0.55, 0.25, 0.20)

	analysis := engine.Evaluate(pred, resultQuotes("bet365", 2.10, 3.40, 3.60))
	require.Len(t, analysis.Recommendations, 1)

	rec := analysis.Recommendations[0]
	assert.Equal(t, domain.OutcomeHome, rec.Outcome)
	assert.Equal(t, "bet365", rec.Bookmaker)

	// Overround 1/2.10+1/3.40+1/3.60 ≈ 1.0480; prob justa ≈ 0.4543.
	assert.InDelta(t, 0.4543, rec.ImpliedProb, 0.001)
	assert.InDelta(t, 0.0957, rec.Edge, 0.001)
	assert.Equal(t, domain.GradeA, rec.Grade)

	// Kelly: (0.55×2.10−1)/1.10 ≈ 0.1409; stake 1000×0.1409×0.25 ≈ 35.2.
	assert.InDelta(t, 0.1409, rec.KellyFraction, 0.0005)
	assert.InDelta(t, 35.2, rec.Stake, 0.1)
	assert.Greater(t, rec.ExpectedValue, 0.0)
	assert.InDelta(t, rec.ExpectedValue/rec.Stake*100, rec.ROI, 1e-9)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 80, rec.Confidence)
}

func TestEvaluateNoEdgeNoRecommendation(t *testing.T) {
	engine := NewEngine(valueConfig())
	// Modelo alineado con el mercado: ningún outcome supera min_edge.
	pred := resultPrediction(0.46, 0.29, 0.25)

	analysis := engine.Evaluate(pred, resultQuotes("bet365", 2.10, 3.40, 3.60))
	assert.Empty(t, analysis.Recommendations)
}

func TestEvaluateEdgeAtThresholdNotRecommended(t *testing.T) {
	cfg := valueConfig()
	// Valores exactos en binario para que el edge caiga justo en el umbral:
	// cuotas 2.0/2.0 → prob justa 0.50; modelo 0.75 → edge 0.25.
	cfg.MinEdge = 0.25
	engine := NewEngine(cfg)

	pred := resultPrediction(0.40, 0.30, 0.30)
	pred.Over25 = domain.MarketProb{Yes: 0.75, Valid: true}

	quotes := []domain.OddsQuote{
		{MatchID: "m1", Bookmaker: "b", Market: domain.MarketOver25, Outcome: domain.OutcomeYes, Decimal: 2.0},
		{MatchID: "m1", Bookmaker: "b", Market: domain.MarketOver25, Outcome: domain.OutcomeNo, Decimal: 2.0},
	}
	analysis := engine.Evaluate(pred, quotes)
	assert.Empty(t, analysis.Recommendations, "edge igual a min_edge no genera apuesta")

	// Por debajo del umbral sí aparece la recomendación.
	cfg.MinEdge = 0.20
	analysis = NewEngine(cfg).Evaluate(pred, quotes)
	require.Len(t, analysis.Recommendations, 1)
	assert.Equal(t, domain.OutcomeYes, analysis.Recommendations[0].Outcome)
}

func TestEvaluateNeverRecommendsNegativeEV(t *testing.T) {
	engine := NewEngine(valueConfig())
	// Edge contra la prob justa pero sin edge bruto contra la cuota: el
	// margen del bookmaker se come el valor.
	pred := resultPrediction(0.49, 0.28, 0.23)
	quotes := resultQuotes("margins", 2.00, 3.10, 3.30)

	analysis := engine.Evaluate(pred, quotes)
	for _, rec := range analysis.Recommendations {
		assert.Greater(t, rec.ExpectedValue, 0.0)
		assert.Greater(t, rec.ModelProb*rec.Odds, 1.0)
	}
}

func TestEvaluateZeroQuotes(t *testing.T) {
	engine := NewEngine(valueConfig())
	analysis := engine.Evaluate(resultPrediction(0.55, 0.25, 0.20), nil)
	assert.Empty(t, analysis.Recommendations)
	assert.False(t, analysis.HighMargin)
}

func TestEvaluateHighMarginFlag(t *testing.T) {
	engine := NewEngine(valueConfig())
	pred := resultPrediction(0.60, 0.22, 0.18)

	// Overround ≈ 1.133: margen muy por encima del 8%.
	analysis := engine.Evaluate(pred, resultQuotes("greedy", 1.90, 3.20, 3.40))
	assert.True(t, analysis.HighMargin)
	assert.Greater(t, analysis.MarginPct, 8.0)
}

func TestEvaluateSuppressesLowConfidence(t *testing.T) {
	cfg := valueConfig()
	cfg.SuppressLowConf = true
	engine := NewEngine(cfg)

	pred := resultPrediction(0.55, 0.25, 0.20)
	pred.LowConfidence = true

	analysis := engine.Evaluate(pred, resultQuotes("bet365", 2.10, 3.40, 3.60))
	assert.Empty(t, analysis.Recommendations)
}

func TestEvaluateOddsOutOfRange(t *testing.T) {
	engine := NewEngine(valueConfig())
	pred := resultPrediction(0.97, 0.02, 0.01)

	// Cuota por debajo de min_odds: se ignora aunque haya edge.
	analysis := engine.Evaluate(pred, resultQuotes("bet365", 1.04, 15.0, 21.0))
	for _, rec := range analysis.Recommendations {
		assert.NotEqual(t, domain.OutcomeHome, rec.Outcome)
	}
}

func TestEvaluateInvalidMarketIgnored(t *testing.T) {
	engine := NewEngine(valueConfig())
	pred := resultPrediction(0.55, 0.25, 0.20)
	pred.Over25 = domain.MarketProb{} // mercado no disponible

	quotes := []domain.OddsQuote{
		{MatchID: "m1", Bookmaker: "b", Market: domain.MarketOver25, Outcome: domain.OutcomeYes, Decimal: 2.0},
		{MatchID: "m1", Bookmaker: "b", Market: domain.MarketOver25, Outcome: domain.OutcomeNo, Decimal: 1.9},
	}
	analysis := engine.Evaluate(pred, quotes)
	assert.Empty(t, analysis.Recommendations)
}

func TestEvaluateSortsByEdge(t *testing.T) {
	engine := NewEngine(valueConfig())
	pred := resultPrediction(0.50, 0.32, 0.18)
	pred.Over25 = domain.MarketProb{Yes: 0.70, Valid: true}

	quotes := append(resultQuotes("bet365", 2.30, 3.40, 3.60),
		domain.OddsQuote{MatchID: "m1", Bookmaker: "bet365", Market: domain.MarketOver25, Outcome: domain.OutcomeYes, Decimal: 1.95},
		domain.OddsQuote{MatchID: "m1", Bookmaker: "bet365", Market: domain.MarketOver25, Outcome: domain.OutcomeNo, Decimal: 1.95},
	)

	analysis := engine.Evaluate(pred, quotes)
	require.GreaterOrEqual(t, len(analysis.Recommendations), 2)
	for i := 1; i < len(analysis.Recommendations); i++ {
		assert.GreaterOrEqual(t,
			analysis.Recommendations[i-1].Edge,
			analysis.Recommendations[i].Edge,
		)
	}
}

func TestGroupQuotesByBookmakerAndMarket(t *testing.T) {
	quotes := append(resultQuotes("a", 2.0, 3.4, 3.6), resultQuotes("b", 2.1, 3.3, 3.5)...)
	groups := groupQuotes(quotes)

	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 3)
	assert.Equal(t, "a", groups[0][0].Bookmaker)
	assert.Equal(t, "b", groups[1][0].Bookmaker)
}
