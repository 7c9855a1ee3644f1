package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// --- fakes en memoria ---

type memStore struct {
	matches []domain.MatchRecord
}

func (s *memStore) sorted(filter func(domain.MatchRecord) bool) []domain.MatchRecord {
	var out []domain.MatchRecord
	for _, m := range s.matches {
		if filter(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (s *memStore) MatchesBefore(_ context.Context, team string, cutoff time.Time, limit int) ([]domain.MatchRecord, error) {
	out := s.sorted(func(m domain.MatchRecord) bool {
		return (m.HomeTeam == team || m.AwayTeam == team) && m.Date.Before(cutoff)
	})
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) HeadToHeadBefore(_ context.Context, home, away string, cutoff time.Time, limit int) ([]domain.MatchRecord, error) {
	out := s.sorted(func(m domain.MatchRecord) bool {
		pair := (m.HomeTeam == home && m.AwayTeam == away) || (m.HomeTeam == away && m.AwayTeam == home)
		return pair && m.Date.Before(cutoff)
	})
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) AllMatches(_ context.Context) ([]domain.MatchRecord, error) {
	return s.sorted(func(domain.MatchRecord) bool { return true }), nil
}

func (s *memStore) SaveMatches(_ context.Context, ms []domain.MatchRecord) error {
	s.matches = append(s.matches, ms...)
	return nil
}

func (s *memStore) Close() error { return nil }

type memBundles struct {
	bundles []*domain.ModelBundle
}

func (b *memBundles) SaveBundle(_ context.Context, bundle *domain.ModelBundle) error {
	b.bundles = append(b.bundles, bundle)
	return nil
}

func (b *memBundles) LoadBundle(_ context.Context, version string) (*domain.ModelBundle, error) {
	for _, bd := range b.bundles {
		if bd.Version == version {
			return bd, nil
		}
	}
	return nil, fmt.Errorf("bundle %q no encontrado", version)
}

func (b *memBundles) LatestBundle(_ context.Context) (*domain.ModelBundle, error) {
	if len(b.bundles) == 0 {
		return nil, errors.New("sin bundles entrenados")
	}
	return b.bundles[len(b.bundles)-1], nil
}

type fakeFeed struct {
	fixtures []domain.MatchContext
	quotes   map[string][]domain.OddsQuote
	failFor  map[string]error
}

func (f *fakeFeed) Quotes(_ context.Context, matchID string) ([]domain.OddsQuote, error) {
	if err, ok := f.failFor[matchID]; ok {
		return nil, err
	}
	qs, ok := f.quotes[matchID]
	if !ok || len(qs) == 0 {
		return nil, domain.ErrNoQuotes
	}
	return qs, nil
}

func (f *fakeFeed) Fixtures(_ context.Context) ([]domain.MatchContext, error) {
	return f.fixtures, nil
}

type captureNotifier struct {
	report *domain.ValueReport
}

func (n *captureNotifier) Notify(_ context.Context, report *domain.ValueReport) error {
	n.report = report
	return nil
}

// --- dataset sintético ---

var kickoffBase = time.Date(2023, 8, 5, 15, 0, 0, 0, time.UTC)

// leagueHistory genera cycles vueltas completas de una liga de 6 equipos con
// resultados deterministas: el índice más bajo es más fuerte.
func leagueHistory(cycles int) []domain.MatchRecord {
	teams := []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF"}
	var out []domain.MatchRecord
	id := 0
	for c := 0; c < cycles; c++ {
		for i := range teams {
			for j := range teams {
				if i == j {
					continue
				}
				hg, ag := 1, 1
				switch {
				case i < j:
					hg, ag = 2+((i+c)%2), j%2
				case i > j:
					hg, ag = i%2, 2
				}
				ch, ca := 5+i, 4+j
				sh, sa := 12+i, 10+j
				sth, sta := 4, 3
				out = append(out, domain.MatchRecord{
					ID:          fmt.Sprintf("h%d", id),
					Competition: "PL",
					Season:      2023,
					HomeTeam:    teams[i],
					AwayTeam:    teams[j],
					Date:        kickoffBase.AddDate(0, 0, id),
					HomeGoals:   hg,
					AwayGoals:   ag,
					Stats: domain.MatchStats{
						CornersHome: &ch, CornersAway: &ca,
						ShotsHome: &sh, ShotsAway: &sa,
						ShotsOnTargetHome: &sth, ShotsOnTargetAway: &sta,
					},
				})
				id++
			}
		}
	}
	return out
}

func pipelineConfig() *config.Config {
	return &config.Config{
		Features: config.Features{
			FormWindow: 5, FormShortWindow: 3, VenueWindow: 10,
			H2HWindow: 10, MinHistoryPerSide: 3,
		},
		Goals: config.Goals{
			DecayHalfLifeDays: 365, MaxIterations: 400, Tolerance: 1e-4,
			LearningRate: 0.005, MaxGoals: 10, MinTeamMatches: 3,
		},
		Models: config.Models{
			MinEvalSamples: 10, EvalFraction: 0.2, CalibrationBins: 10,
			Epochs: 60, LearningRate: 0.1, L2: 0.001,
		},
		Ensemble: config.Ensemble{BlendWeight: 0.5},
		Value: config.Value{
			MinEdge: 0.03, Bankroll: 1000, KellyMultiplier: 0.25,
			MaxStakeFraction: 0.05, HighMarginPct: 8, MinOdds: 1.1, MaxOdds: 15,
		},
		Pipeline: config.Pipeline{Workers: 4, TimeoutSeconds: 10},
	}
}

func fixtureFor(id, home, away string, daysAfter int) domain.MatchContext {
	return domain.MatchContext{
		MatchID: id, Competition: "PL", Season: 2023,
		HomeTeam: home, AwayTeam: away,
		KickOff: kickoffBase.AddDate(0, 1, daysAfter),
	}
}

func resultQuotes(matchID string) []domain.OddsQuote {
	mk := func(o domain.Outcome, dec float64) domain.OddsQuote {
		return domain.OddsQuote{
			MatchID: matchID, Bookmaker: "bet365",
			Market: domain.MarketResult, Outcome: o, Decimal: dec,
		}
	}
	// Cuotas generosas hacia el visitante: el favorito del modelo (local
	// fuerte) debería disparar edge en home.
	return []domain.OddsQuote{
		mk(domain.OutcomeHome, 2.60), mk(domain.OutcomeDraw, 3.40), mk(domain.OutcomeAway, 2.60),
	}
}

// --- tests ---

func TestTrainProducesCompleteBundle(t *testing.T) {
	store := &memStore{matches: leagueHistory(5)} // 150 partidos
	bundles := &memBundles{}
	trainer := NewTrainer(pipelineConfig(), store, bundles)

	bundle, err := trainer.Train(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, bundle.Version)
	assert.Equal(t, domain.SchemaVersion, bundle.Schema)
	assert.Contains(t, bundle.Models, domain.MarketResult)
	assert.Contains(t, bundle.Models, domain.MarketTotalCorners)
	assert.Len(t, bundle.Strengths, 6)
	assert.Greater(t, bundle.LeagueAvgGoals, 0.0)
	assert.Greater(t, bundle.LeagueAvgCorners, 0.0)

	// El bundle quedó persistido.
	latest, err := bundles.LatestBundle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bundle.Version, latest.Version)
}

func TestTrainInsufficientData(t *testing.T) {
	store := &memStore{matches: leagueHistory(2)[:40]}
	trainer := NewTrainer(pipelineConfig(), store, &memBundles{})

	_, err := trainer.Train(context.Background())
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestScanAccumulatesSkipsAndContinues(t *testing.T) {
	ctx := context.Background()
	store := &memStore{matches: leagueHistory(5)}
	bundles := &memBundles{}
	cfg := pipelineConfig()

	_, err := NewTrainer(cfg, store, bundles).Train(ctx)
	require.NoError(t, err)

	feed := &fakeFeed{
		fixtures: []domain.MatchContext{
			fixtureFor("f1", "AAA", "FFF", 0),
			fixtureFor("f2", "BBB", "EEE", 1),
			fixtureFor("f3", "CCC", "DDD", 2),
		},
		quotes:  map[string][]domain.OddsQuote{"f1": resultQuotes("f1")},
		failFor: map[string]error{"f3": errors.New("timeout del feed")},
	}
	notifier := &captureNotifier{}

	report, err := NewScanner(cfg, store, bundles, feed, notifier).Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.MatchesAnalyzed)
	assert.Same(t, report, notifier.report)

	reasons := map[string]domain.SkipReason{}
	for _, s := range report.Skipped {
		reasons[s.MatchID] = s.Reason
	}
	assert.Equal(t, domain.SkipNoQuotes, reasons["f2"])
	assert.Equal(t, domain.SkipFeedError, reasons["f3"])

	for _, rec := range report.Recommendations {
		assert.Equal(t, "f1", rec.MatchID)
		assert.GreaterOrEqual(t, rec.Edge, cfg.Value.MinEdge)
		assert.Greater(t, rec.Stake, 0.0)
		assert.LessOrEqual(t, rec.Stake, cfg.Value.Bankroll*cfg.Value.MaxStakeFraction)
	}
}

// failingStore rompe la lectura de historial para simular un fallo de storage
// durante el cálculo de features.
type failingStore struct {
	*memStore
	err error
}

func (s *failingStore) MatchesBefore(context.Context, string, time.Time, int) ([]domain.MatchRecord, error) {
	return nil, s.err
}

func TestScanFeatureFailureReported(t *testing.T) {
	ctx := context.Background()
	store := &memStore{matches: leagueHistory(5)}
	bundles := &memBundles{}
	cfg := pipelineConfig()

	_, err := NewTrainer(cfg, store, bundles).Train(ctx)
	require.NoError(t, err)

	feed := &fakeFeed{
		fixtures: []domain.MatchContext{fixtureFor("f1", "AAA", "FFF", 0)},
		quotes:   map[string][]domain.OddsQuote{"f1": resultQuotes("f1")},
	}
	broken := &failingStore{memStore: store, err: errors.New("disco roto")}

	report, err := NewScanner(cfg, broken, bundles, feed, nil).Scan(ctx)
	require.NoError(t, err)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, domain.SkipFeatureError, report.Skipped[0].Reason)
	assert.Contains(t, report.Skipped[0].Detail, "disco roto")
	assert.Empty(t, report.Recommendations)
}

func TestScanStaleBundleReportsSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	store := &memStore{matches: leagueHistory(5)}
	cfg := pipelineConfig()

	// Bundle entrenado con un schema anterior y sin fit de goles: ningún
	// mercado puede servirse con vectores del schema actual.
	weights := make([][]float64, 3)
	for i := range weights {
		weights[i] = make([]float64, domain.NumFeatures)
	}
	stale := &domain.ModelBundle{
		Version: "stale", CreatedAt: kickoffBase, Schema: "v1.28",
		Models: map[domain.Market]domain.TrainedModel{
			domain.MarketResult: {
				Market: domain.MarketResult, Kind: domain.KindSoftmax,
				Schema: "v1.28", Classes: 3, Weights: weights, Bias: make([]float64, 3),
			},
		},
	}
	bundles := &memBundles{bundles: []*domain.ModelBundle{stale}}

	feed := &fakeFeed{
		fixtures: []domain.MatchContext{fixtureFor("f1", "AAA", "FFF", 0)},
		quotes:   map[string][]domain.OddsQuote{"f1": resultQuotes("f1")},
	}

	report, err := NewScanner(cfg, store, bundles, feed, nil).Scan(ctx)
	require.NoError(t, err)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, domain.SkipSchemaMismatch, report.Skipped[0].Reason)
	assert.Contains(t, report.Skipped[0].Detail, "v1.28")
	assert.Empty(t, report.Recommendations)
}

func TestScanWithoutBundleFails(t *testing.T) {
	cfg := pipelineConfig()
	store := &memStore{matches: leagueHistory(5)}

	_, err := NewScanner(cfg, store, &memBundles{}, &fakeFeed{}, nil).Scan(context.Background())
	assert.Error(t, err)
}

func TestPredictMatch(t *testing.T) {
	ctx := context.Background()
	store := &memStore{matches: leagueHistory(5)}
	bundles := &memBundles{}
	cfg := pipelineConfig()

	_, err := NewTrainer(cfg, store, bundles).Train(ctx)
	require.NoError(t, err)

	feed := &fakeFeed{fixtures: []domain.MatchContext{fixtureFor("f1", "AAA", "FFF", 0)}}
	scanner := NewScanner(cfg, store, bundles, feed, nil)

	pred, err := scanner.PredictMatch(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "f1", pred.MatchID)
	require.True(t, pred.ResultValid)
	assert.InDelta(t, 1.0, pred.Result.Sum(), 1e-9)
	assert.Greater(t, pred.Result.Home, pred.Result.Away,
		"el equipo dominante del dataset debe salir favorito")

	_, err = scanner.PredictMatch(ctx, "nope")
	assert.Error(t, err)
}

func TestBacktest(t *testing.T) {
	ctx := context.Background()
	store := &memStore{matches: leagueHistory(6)} // 180 partidos
	cfg := pipelineConfig()
	backtester := NewBacktester(cfg, store, &memBundles{})

	// Entrenar con los primeros ~150, evaluar los últimos 30.
	from := kickoffBase.AddDate(0, 0, 150)
	to := kickoffBase.AddDate(0, 0, 181)

	summary, err := backtester.Run(ctx, from, to)
	require.NoError(t, err)

	assert.Equal(t, 30, summary.MatchesTried)
	require.NotEmpty(t, summary.Ensemble)
	require.NotEmpty(t, summary.GoalModel)

	byMarket := map[domain.Market]domain.MarketHitRate{}
	for _, hr := range summary.Ensemble {
		byMarket[hr.Market] = hr
	}
	assert.Greater(t, byMarket[domain.MarketResult].Total, 0)
	assert.Greater(t, byMarket[domain.MarketTotalCorners].MAE, 0.0)

	if summary.BetsPlaced > 0 {
		assert.Greater(t, summary.TotalStaked, 0.0)
	}
}

func TestBacktestEmptyWindow(t *testing.T) {
	store := &memStore{matches: leagueHistory(5)}
	backtester := NewBacktester(pipelineConfig(), store, &memBundles{})

	from := kickoffBase.AddDate(2, 0, 0)
	_, err := backtester.Run(context.Background(), from, from.AddDate(0, 1, 0))
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}
