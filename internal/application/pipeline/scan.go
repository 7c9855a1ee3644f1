package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
	"github.com/rodolfo150194/analyze-matches-football/internal/ensemble"
	"github.com/rodolfo150194/analyze-matches-football/internal/features"
	"github.com/rodolfo150194/analyze-matches-football/internal/ports"
	"github.com/rodolfo150194/analyze-matches-football/internal/value"
)

// Scanner orquesta el análisis de valor de la jornada: carga el último
// bundle, predice cada fixture y cruza las predicciones contra las cuotas.
type Scanner struct {
	cfg      *config.Config
	store    ports.MatchStore
	bundles  ports.BundleStore
	feed     ports.OddsFeed
	notifier ports.Notifier
	now      func() time.Time
}

// NewScanner crea un Scanner con todas las dependencias inyectadas.
func NewScanner(cfg *config.Config, store ports.MatchStore, bundles ports.BundleStore, feed ports.OddsFeed, notifier ports.Notifier) *Scanner {
	return &Scanner{
		cfg:      cfg,
		store:    store,
		bundles:  bundles,
		feed:     feed,
		notifier: notifier,
		now:      time.Now,
	}
}

// Scan analiza todos los fixtures anunciados por el feed y notifica el
// informe. Los fallos por partido se acumulan en el informe; solo un fallo
// de bundle o de fixtures aborta el escaneo entero.
func (s *Scanner) Scan(ctx context.Context) (*domain.ValueReport, error) {
	start := s.now()

	bundle, err := s.bundles.LatestBundle(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Scan: cargar bundle: %w", err)
	}
	fixtures, err := s.feed.Fixtures(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Scan: fixtures: %w", err)
	}

	report := s.scanFixtures(ctx, bundle, fixtures)

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("value scan complete",
		"fixtures", len(fixtures),
		"recommendations", len(report.Recommendations),
		"skipped", len(report.Skipped),
		"high_margin", len(report.HighMarginMatches),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

// scanFixtures procesa los fixtures en paralelo con un worker pool.
func (s *Scanner) scanFixtures(ctx context.Context, bundle *domain.ModelBundle, fixtures []domain.MatchContext) *domain.ValueReport {
	engineer := features.NewEngineer(s.store, s.cfg.Features)
	predictor := ensemble.New(bundle, s.cfg.Ensemble, s.cfg.Goals.MaxGoals)
	engine := value.NewEngine(s.cfg.Value)

	workers := s.cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 4
	}
	workCh := make(chan domain.MatchContext, len(fixtures))
	resultCh := make(chan matchResult, len(fixtures))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for mc := range workCh {
				mcCtx, cancel := context.WithTimeout(ctx, s.cfg.PipelineTimeout())
				res := s.analyzeMatch(mcCtx, bundle, engineer, predictor, engine, mc)
				cancel()
				resultCh <- res
			}
		}()
	}

	for _, mc := range fixtures {
		workCh <- mc
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	report := &domain.ValueReport{
		ScannedAt:     s.now(),
		BundleVersion: bundle.Version,
	}
	for res := range resultCh {
		report.MatchesAnalyzed++
		report.Recommendations = append(report.Recommendations, res.recs...)
		if res.skip != nil {
			report.Skipped = append(report.Skipped, *res.skip)
		}
		if res.highMargin != "" {
			report.HighMarginMatches = append(report.HighMarginMatches, res.highMargin)
		}
	}

	sort.SliceStable(report.Recommendations, func(i, j int) bool {
		return report.Recommendations[i].Edge > report.Recommendations[j].Edge
	})
	sort.Strings(report.HighMarginMatches)
	return report
}

// matchResult es el resultado de analizar un fixture: recomendaciones, o el
// motivo por el que quedó fuera.
type matchResult struct {
	recs       []domain.Recommendation
	skip       *domain.MatchSkip
	highMargin string
}

func (s *Scanner) analyzeMatch(ctx context.Context, bundle *domain.ModelBundle, engineer *features.Engineer, predictor *ensemble.Predictor, engine *value.Engine, mc domain.MatchContext) (res matchResult) {
	quotes, err := s.feed.Quotes(ctx, mc.MatchID)
	switch {
	case errors.Is(err, domain.ErrNoQuotes), err == nil && len(quotes) == 0:
		res.skip = &domain.MatchSkip{MatchID: mc.MatchID, Reason: domain.SkipNoQuotes}
		return res
	case err != nil:
		res.skip = &domain.MatchSkip{MatchID: mc.MatchID, Reason: domain.SkipFeedError, Detail: err.Error()}
		return res
	}

	pred, err := s.Predict(ctx, engineer, predictor, mc)
	if err != nil {
		res.skip = &domain.MatchSkip{MatchID: mc.MatchID, Reason: domain.SkipFeatureError, Detail: err.Error()}
		return res
	}
	if !pred.HasBettableMarket() && pred.Schema != bundle.Schema {
		res.skip = &domain.MatchSkip{
			MatchID: mc.MatchID,
			Reason:  domain.SkipSchemaMismatch,
			Detail:  fmt.Sprintf("vector %s, bundle %s", pred.Schema, bundle.Schema),
		}
		return res
	}

	analysis := engine.Evaluate(pred, quotes)
	res.recs = analysis.Recommendations
	if analysis.HighMargin {
		res.highMargin = mc.MatchID
	}
	if len(analysis.Recommendations) == 0 && res.skip == nil {
		reason := domain.SkipNoEdge
		if s.cfg.Value.SuppressLowConf && pred.LowConfidence {
			reason = domain.SkipLowConfidence
		}
		res.skip = &domain.MatchSkip{MatchID: mc.MatchID, Reason: reason}
	}
	return res
}

// Predict calcula la predicción de un único partido con el bundle más
// reciente ya resuelto por el caller.
func (s *Scanner) Predict(ctx context.Context, engineer *features.Engineer, predictor *ensemble.Predictor, mc domain.MatchContext) (domain.Prediction, error) {
	fv, err := engineer.Compute(ctx, mc)
	if err != nil {
		return domain.Prediction{}, err
	}
	return predictor.Predict(mc, fv), nil
}

// PredictMatch es el camino del CLI para un solo partido: carga el último
// bundle y predice el fixture con ese ID.
func (s *Scanner) PredictMatch(ctx context.Context, matchID string) (domain.Prediction, error) {
	bundle, err := s.bundles.LatestBundle(ctx)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("pipeline.PredictMatch: cargar bundle: %w", err)
	}
	fixtures, err := s.feed.Fixtures(ctx)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("pipeline.PredictMatch: fixtures: %w", err)
	}
	for _, mc := range fixtures {
		if mc.MatchID == matchID {
			engineer := features.NewEngineer(s.store, s.cfg.Features)
			predictor := ensemble.New(bundle, s.cfg.Ensemble, s.cfg.Goals.MaxGoals)
			return s.Predict(ctx, engineer, predictor, mc)
		}
	}
	return domain.Prediction{}, fmt.Errorf("pipeline.PredictMatch: fixture %q no encontrado", matchID)
}
