package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rodolfo150194/analyze-matches-football/internal/adapters/notify"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *domain.ValueReport {
	return &domain.ValueReport{
		ScannedAt:       time.Date(2025, 9, 12, 10, 30, 0, 0, time.UTC),
		BundleVersion:   "4f9c2a1e-0000-0000-0000-000000000000",
		MatchesAnalyzed: 5,
		Recommendations: []domain.Recommendation{
			{
				ID:            "rec-1",
				MatchID:       "ev-001",
				HomeTeam:      "Arsenal",
				AwayTeam:      "Chelsea",
				Market:        domain.MarketResult,
				Outcome:       domain.OutcomeHome,
				Bookmaker:     "pinnacle",
				Odds:          2.10,
				ModelProb:     0.55,
				ImpliedProb:   0.4543,
				Edge:          0.0957,
				Grade:         domain.GradeA,
				Stake:         35.22,
				ExpectedValue: 5.43,
			},
		},
		Skipped: []domain.MatchSkip{
			{MatchID: "ev-002", Reason: domain.SkipNoQuotes},
			{MatchID: "ev-003", Reason: domain.SkipNoEdge},
			{MatchID: "ev-004", Reason: domain.SkipNoEdge},
		},
		HighMarginMatches: []string{"ev-005"},
	}
}

func TestNotifyPrintsRecommendations(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf)

	require.NoError(t, console.Notify(context.Background(), sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "5 partidos analizados")
	assert.Contains(t, out, "Arsenal vs Chelsea")
	assert.Contains(t, out, "pinnacle")
	assert.Contains(t, out, "2.10")
	assert.Contains(t, out, "+9.6%")
	assert.Contains(t, out, "$35.22")
	// Versión del bundle abreviada.
	assert.Contains(t, out, "4f9c2a1e")
	assert.NotContains(t, out, "4f9c2a1e-0000")
}

func TestNotifyHighMarginWarning(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf)

	require.NoError(t, console.Notify(context.Background(), sampleReport()))

	assert.Contains(t, buf.String(), "Margen 1X2 alto")
	assert.Contains(t, buf.String(), "ev-005")
}

func TestNotifySkipBreakdown(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf)

	require.NoError(t, console.Notify(context.Background(), sampleReport()))

	assert.Contains(t, buf.String(), "no_quotes:1")
	assert.Contains(t, buf.String(), "no_edge:2")
}

func TestNotifyEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf)

	report := &domain.ValueReport{ScannedAt: time.Now(), MatchesAnalyzed: 3}
	require.NoError(t, console.Notify(context.Background(), report))

	assert.Contains(t, buf.String(), "sin apuestas de valor")
}

func TestPrintPrediction(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf)

	console.PrintPrediction(&domain.Prediction{
		MatchID:       "ev-001",
		HomeTeam:      "Arsenal",
		AwayTeam:      "Chelsea",
		KickOff:       time.Date(2025, 9, 13, 14, 0, 0, 0, time.UTC),
		BundleVersion: "abcdef1234",
		Result:        domain.Prob3{Home: 0.5, Draw: 0.27, Away: 0.23},
		ResultValid:   true,
		Over25:        domain.MarketProb{Yes: 0.61, Valid: true},
		TotalCorners:  domain.Estimate{Value: 10.4, Valid: true},
		LambdaHome:    1.8,
		LambdaAway:    1.1,
		Confidence:    84,
		Skipped:       map[domain.Market]string{domain.MarketBTTS: "sin modelo entrenado"},
	})

	out := buf.String()
	assert.Contains(t, out, "local 50.0%")
	assert.Contains(t, out, "Over 2.5: 61.0%")
	assert.Contains(t, out, "Corners totales: 10.4")
	assert.Contains(t, out, "1.80 - 1.10")
	assert.Contains(t, out, "sin btts")
	// Los mercados sin dato no se imprimen.
	assert.NotContains(t, out, "Tiros totales")
}

func TestPrintBacktest(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf)

	console.PrintBacktest(&domain.BacktestSummary{
		From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Ensemble: []domain.MarketHitRate{
			{Market: domain.MarketResult, Hits: 28, Total: 50, HitRate: 0.56},
			{Market: domain.MarketTotalCorners, Total: 50, MAE: 2.31},
		},
		GoalModel: []domain.MarketHitRate{
			{Market: domain.MarketResult, Hits: 25, Total: 50, HitRate: 0.50},
		},
		BetsPlaced:   18,
		TotalStaked:  420.50,
		ProfitLoss:   36.20,
		ROIPct:       8.6,
		MatchesTried: 50,
	})

	out := buf.String()
	assert.Contains(t, out, "56.0% (50)")
	assert.Contains(t, out, "50.0% (50)")
	assert.Contains(t, out, "2.31")
	assert.Contains(t, out, "ROI: 8.6%")
	assert.Contains(t, out, "rentable")
}
