package value

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// Engine compara las probabilidades del modelo contra las cuotas publicadas
// y emite recomendaciones de apuesta con staking de Kelly fraccional.
// Es puro: misma predicción y mismas cuotas producen las mismas
// recomendaciones.
type Engine struct {
	cfg config.Value
	now func() time.Time
}

// NewEngine crea un Engine con la configuración dada.
func NewEngine(cfg config.Value) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

// Analysis es el resultado de evaluar un partido contra sus cuotas.
type Analysis struct {
	Recommendations []domain.Recommendation
	// HighMargin indica que el mercado 1X2 supera el umbral de margen:
	// los edges detectados en ese partido merecen cautela.
	HighMargin bool
	MarginPct  float64
}

// Evaluate cruza la predicción con las cuotas del partido. Las cuotas se
// agrupan por bookmaker y mercado para remover el overround de cada set
// excluyente antes de comparar; un edge contra probabilidades sin normalizar
// estaría inflado por el margen.
//
// Devuelve cero recomendaciones sin error cuando ningún outcome supera
// min_edge: la ausencia de valor es un resultado, no un fallo.
func (e *Engine) Evaluate(pred domain.Prediction, quotes []domain.OddsQuote) Analysis {
	var analysis Analysis

	if e.cfg.SuppressLowConf && pred.LowConfidence {
		return analysis
	}

	for _, set := range groupQuotes(quotes) {
		margin := domain.MarginPct(set)
		if set[0].Market == domain.MarketResult && margin > e.cfg.HighMarginPct {
			analysis.HighMargin = true
			analysis.MarginPct = margin
		}

		fair := domain.RemoveOverround(set)
		for i, q := range set {
			rec, ok := e.evaluateQuote(pred, q, fair[i], margin)
			if ok {
				analysis.Recommendations = append(analysis.Recommendations, rec)
			}
		}
	}

	// Orden estable por edge descendente.
	sort.SliceStable(analysis.Recommendations, func(i, j int) bool {
		return analysis.Recommendations[i].Edge > analysis.Recommendations[j].Edge
	})
	return analysis
}

func (e *Engine) evaluateQuote(pred domain.Prediction, q domain.OddsQuote, fairProb, margin float64) (domain.Recommendation, bool) {
	if q.Decimal < e.cfg.MinOdds || q.Decimal > e.cfg.MaxOdds {
		return domain.Recommendation{}, false
	}
	modelProb, ok := pred.ProbFor(q.Market, q.Outcome)
	if !ok {
		return domain.Recommendation{}, false
	}

	edge := domain.Edge(modelProb, fairProb)
	// El umbral es estricto: un edge exactamente en min_edge no se apuesta.
	if edge <= e.cfg.MinEdge {
		return domain.Recommendation{}, false
	}

	stake := domain.KellyStake(modelProb, q.Decimal, e.cfg.Bankroll, e.cfg.KellyMultiplier, e.cfg.MaxStakeFraction)
	if stake <= 0 {
		// Edge sobre la probabilidad justa pero sin edge bruto contra la
		// cuota: no hay apuesta rentable.
		return domain.Recommendation{}, false
	}
	ev := domain.ExpectedValue(modelProb, q.Decimal, stake)

	rec := domain.Recommendation{
		ID:            uuid.NewString(),
		MatchID:       pred.MatchID,
		HomeTeam:      pred.HomeTeam,
		AwayTeam:      pred.AwayTeam,
		Market:        q.Market,
		Outcome:       q.Outcome,
		Bookmaker:     q.Bookmaker,
		Odds:          q.Decimal,
		ModelProb:     modelProb,
		ImpliedProb:   fairProb,
		Edge:          edge,
		MarginPct:     margin,
		KellyFraction: domain.KellyFraction(modelProb, q.Decimal),
		Stake:         stake,
		ExpectedValue: ev,
		Grade:         domain.GradeForEdge(edge),
		Confidence:    pred.Confidence,
		CreatedAt:     e.now(),
	}
	if stake > 0 {
		rec.ROI = ev / stake * 100
	}
	return rec, true
}

// groupQuotes separa las cuotas en sets mutuamente excluyentes: un set por
// (bookmaker, mercado). El overround solo tiene sentido dentro de un set.
func groupQuotes(quotes []domain.OddsQuote) [][]domain.OddsQuote {
	type key struct {
		bookmaker string
		market    domain.Market
	}
	groups := make(map[key][]domain.OddsQuote)
	var order []key
	for _, q := range quotes {
		k := key{q.Bookmaker, q.Market}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], q)
	}
	out := make([][]domain.OddsQuote, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k])
	}
	return out
}
