package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
	"github.com/rodolfo150194/analyze-matches-football/internal/ensemble"
	"github.com/rodolfo150194/analyze-matches-football/internal/features"
	"github.com/rodolfo150194/analyze-matches-football/internal/goalmodel"
	"github.com/rodolfo150194/analyze-matches-football/internal/ports"
	"github.com/rodolfo150194/analyze-matches-football/internal/value"
)

// syntheticMarginPct es el margen del bookmaker sintético del backtest.
const syntheticMarginPct = 0.05

// Backtester entrena con el pasado y evalúa contra partidos ya jugados que
// el entrenamiento nunca vio: compara el acierto del ensemble contra el
// modelo de goles puro y simula el P&L del staking recomendado.
//
// Las cuotas históricas no se persisten, así que el P&L se simula contra un
// bookmaker sintético que publica las probabilidades del modelo de goles con
// un margen del 5%. Mide la mecánica del staking, no la rentabilidad real.
type Backtester struct {
	cfg     *config.Config
	store   ports.MatchStore
	trainer *Trainer
}

// NewBacktester crea un Backtester con todas las dependencias inyectadas.
func NewBacktester(cfg *config.Config, store ports.MatchStore, bundles ports.BundleStore) *Backtester {
	return &Backtester{
		cfg:     cfg,
		store:   store,
		trainer: NewTrainer(cfg, store, bundles),
	}
}

// hitAcc acumula aciertos de una fuente en un mercado.
type hitAcc struct {
	hits   int
	total  int
	absErr float64
}

func (a *hitAcc) record(hit bool) {
	a.total++
	if hit {
		a.hits++
	}
}

func (a *hitAcc) rate(market domain.Market) domain.MarketHitRate {
	r := domain.MarketHitRate{Market: market, Hits: a.hits, Total: a.total}
	if a.total > 0 {
		r.HitRate = float64(a.hits) / float64(a.total)
		if a.absErr > 0 {
			r.MAE = a.absErr / float64(a.total)
		}
	}
	return r
}

// Run entrena con los partidos anteriores a from y evalúa sobre [from, to).
func (b *Backtester) Run(ctx context.Context, from, to time.Time) (*domain.BacktestSummary, error) {
	bundle, err := b.trainer.buildBundle(ctx, &from)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Backtest: entrenar hasta %s: %w", from.Format("2006-01-02"), err)
	}

	all, err := b.store.AllMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Backtest: cargar dataset: %w", err)
	}
	var test []domain.MatchRecord
	for _, m := range all {
		if !m.Date.Before(from) && m.Date.Before(to) {
			test = append(test, m)
		}
	}
	if len(test) == 0 {
		return nil, fmt.Errorf("%w: sin partidos en [%s, %s)",
			domain.ErrInsufficientData, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	engineer := features.NewEngineer(b.store, b.cfg.Features)
	predictor := ensemble.New(bundle, b.cfg.Ensemble, b.cfg.Goals.MaxGoals)
	goals := goalmodel.NewModel(bundle.Strengths, bundle.GoalFit, b.cfg.Goals.MaxGoals)
	engine := value.NewEngine(b.cfg.Value)

	summary := &domain.BacktestSummary{From: from, To: to}
	ens := map[domain.Market]*hitAcc{}
	pure := map[domain.Market]*hitAcc{}
	for _, mk := range []domain.Market{domain.MarketResult, domain.MarketOver25, domain.MarketBTTS,
		domain.MarketTotalCorners, domain.MarketTotalShots, domain.MarketTotalSOT} {
		ens[mk] = &hitAcc{}
		pure[mk] = &hitAcc{}
	}

	for _, m := range test {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary.MatchesTried++

		mc := domain.MatchContext{
			MatchID: m.ID, Competition: m.Competition, Season: m.Season,
			HomeTeam: m.HomeTeam, AwayTeam: m.AwayTeam, KickOff: m.Date,
		}
		fv, err := engineer.Compute(ctx, mc)
		if err != nil {
			slog.Debug("backtest: features no disponibles", "match_id", m.ID, "err", err)
			continue
		}

		pred := predictor.Predict(mc, fv)
		goalPred := goals.Predict(m.HomeTeam, m.AwayTeam)

		scoreSources(m, pred, goalPred, ens, pure)
		b.settleBets(m, pred, goalPred, engine, summary)
	}

	for _, mk := range []domain.Market{domain.MarketResult, domain.MarketOver25, domain.MarketBTTS} {
		summary.Ensemble = append(summary.Ensemble, ens[mk].rate(mk))
		summary.GoalModel = append(summary.GoalModel, pure[mk].rate(mk))
	}
	for _, mk := range domain.RegressorMarkets {
		summary.Ensemble = append(summary.Ensemble, ens[mk].rate(mk))
	}
	if summary.TotalStaked > 0 {
		summary.ROIPct = summary.ProfitLoss / summary.TotalStaked * 100
	}

	slog.Info("backtest complete",
		"matches", summary.MatchesTried,
		"bets", summary.BetsPlaced,
		"profit_loss", fmt.Sprintf("%.2f", summary.ProfitLoss),
		"roi_pct", fmt.Sprintf("%.2f", summary.ROIPct),
	)
	return summary, nil
}

// scoreSources acumula el acierto de cada fuente sobre el partido.
func scoreSources(m domain.MatchRecord, pred domain.Prediction, goalPred goalmodel.GoalPrediction, ens, pure map[domain.Market]*hitAcc) {
	actual := m.Result()
	if pred.ResultValid {
		ens[domain.MarketResult].record(pickResult(pred.Result) == actual)
	}
	pure[domain.MarketResult].record(pickResult(goalPred.Result) == actual)

	over := m.TotalGoals() > 2
	if pred.Over25.Valid {
		ens[domain.MarketOver25].record((pred.Over25.Yes > 0.5) == over)
	}
	pure[domain.MarketOver25].record((goalPred.Over25 > 0.5) == over)

	btts := m.BothTeamsScored()
	if pred.BTTS.Valid {
		ens[domain.MarketBTTS].record((pred.BTTS.Yes > 0.5) == btts)
	}
	pure[domain.MarketBTTS].record((goalPred.BTTS > 0.5) == btts)

	if c, ok := m.TotalCorners(); ok && pred.TotalCorners.Valid {
		acc := ens[domain.MarketTotalCorners]
		acc.total++
		acc.absErr += math.Abs(pred.TotalCorners.Value - float64(c))
	}
	if sh, ok := m.TotalShots(); ok && pred.TotalShots.Valid {
		acc := ens[domain.MarketTotalShots]
		acc.total++
		acc.absErr += math.Abs(pred.TotalShots.Value - float64(sh))
	}
	if sot, ok := m.TotalShotsOnTarget(); ok && pred.TotalSOT.Valid {
		acc := ens[domain.MarketTotalSOT]
		acc.total++
		acc.absErr += math.Abs(pred.TotalSOT.Value - float64(sot))
	}
}

// settleBets evalúa el partido contra el bookmaker sintético y liquida las
// apuestas recomendadas con el resultado real.
func (b *Backtester) settleBets(m domain.MatchRecord, pred domain.Prediction, goalPred goalmodel.GoalPrediction, engine *value.Engine, summary *domain.BacktestSummary) {
	quotes := syntheticQuotes(m.ID, goalPred)
	analysis := engine.Evaluate(pred, quotes)

	for _, rec := range analysis.Recommendations {
		summary.BetsPlaced++
		summary.TotalStaked += rec.Stake
		if betHit(rec, m) {
			summary.ProfitLoss += rec.Stake * (rec.Odds - 1)
		} else {
			summary.ProfitLoss -= rec.Stake
		}
	}
}

// syntheticQuotes convierte las probabilidades del modelo de goles en cuotas
// decimales con margen proporcional.
func syntheticQuotes(matchID string, goalPred goalmodel.GoalPrediction) []domain.OddsQuote {
	quote := func(market domain.Market, outcome domain.Outcome, p float64) domain.OddsQuote {
		const floor = 0.01
		if p < floor {
			p = floor
		}
		return domain.OddsQuote{
			MatchID:   matchID,
			Bookmaker: "synthetic",
			Market:    market,
			Outcome:   outcome,
			Decimal:   1 / (p * (1 + syntheticMarginPct)),
		}
	}
	return []domain.OddsQuote{
		quote(domain.MarketResult, domain.OutcomeHome, goalPred.Result.Home),
		quote(domain.MarketResult, domain.OutcomeDraw, goalPred.Result.Draw),
		quote(domain.MarketResult, domain.OutcomeAway, goalPred.Result.Away),
		quote(domain.MarketOver25, domain.OutcomeYes, goalPred.Over25),
		quote(domain.MarketOver25, domain.OutcomeNo, 1-goalPred.Over25),
		quote(domain.MarketBTTS, domain.OutcomeYes, goalPred.BTTS),
		quote(domain.MarketBTTS, domain.OutcomeNo, 1-goalPred.BTTS),
	}
}

// betHit decide si la recomendación acertó con el resultado real.
func betHit(rec domain.Recommendation, m domain.MatchRecord) bool {
	switch rec.Market {
	case domain.MarketResult:
		switch rec.Outcome {
		case domain.OutcomeHome:
			return m.Result() == domain.ResultHome
		case domain.OutcomeDraw:
			return m.Result() == domain.ResultDraw
		case domain.OutcomeAway:
			return m.Result() == domain.ResultAway
		}
	case domain.MarketOver25:
		over := m.TotalGoals() > 2
		return (rec.Outcome == domain.OutcomeYes) == over
	case domain.MarketBTTS:
		return (rec.Outcome == domain.OutcomeYes) == m.BothTeamsScored()
	}
	return false
}

// pickResult devuelve el outcome más probable de una distribución 1X2.
func pickResult(p domain.Prob3) domain.Result {
	switch {
	case p.Home >= p.Draw && p.Home >= p.Away:
		return domain.ResultHome
	case p.Away >= p.Draw:
		return domain.ResultAway
	default:
		return domain.ResultDraw
	}
}
