package domain

import "time"

// SkipReason clasifica por qué un partido o mercado quedó fuera del análisis.
type SkipReason string

const (
	SkipNoQuotes       SkipReason = "no_quotes"
	SkipFeedError      SkipReason = "feed_error"
	SkipFeatureError   SkipReason = "feature_error"
	SkipSchemaMismatch SkipReason = "schema_mismatch"
	SkipLowConfidence  SkipReason = "low_confidence"
	SkipNoEdge         SkipReason = "no_edge"
)

// MatchSkip registra un partido excluido del análisis de valor y el motivo.
// Los fallos se acumulan aquí, no abortan el batch.
type MatchSkip struct {
	MatchID string
	Reason  SkipReason
	Detail  string
}

// ValueReport es el resultado acumulado de un batch de análisis de valor.
type ValueReport struct {
	ScannedAt       time.Time
	BundleVersion   string
	Recommendations []Recommendation
	Skipped         []MatchSkip
	MatchesAnalyzed int

	// HighMarginMatches: partidos cuyo mercado 1X2 supera el 8% de margen.
	// Los edges en mercados con mucho margen pueden ser ilusorios.
	HighMarginMatches []string
}

// MarketHitRate es el acierto de una fuente de predicción en un mercado
// durante un backtest.
type MarketHitRate struct {
	Market  Market  `json:"market"`
	Hits    int     `json:"hits"`
	Total   int     `json:"total"`
	HitRate float64 `json:"hit_rate"`
	MAE     float64 `json:"mae,omitempty"` // solo regresiones
}

// BacktestSummary compara el ensemble contra el modelo de goles puro sobre
// partidos ya jugados, y simula el P&L del staking recomendado.
type BacktestSummary struct {
	From, To time.Time

	Ensemble  []MarketHitRate `json:"ensemble"`
	GoalModel []MarketHitRate `json:"goal_model"`

	BetsPlaced   int     `json:"bets_placed"`
	TotalStaked  float64 `json:"total_staked"`
	ProfitLoss   float64 `json:"profit_loss"`
	ROIPct       float64 `json:"roi_pct"`
	MatchesTried int     `json:"matches_tried"`
}
