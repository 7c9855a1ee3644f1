package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
	"github.com/rodolfo150194/analyze-matches-football/internal/features"
	"github.com/rodolfo150194/analyze-matches-football/internal/goalmodel"
	"github.com/rodolfo150194/analyze-matches-football/internal/modelbank"
	"github.com/rodolfo150194/analyze-matches-football/internal/ports"
)

// minTrainingMatches es el mínimo absoluto para intentar un entrenamiento.
const minTrainingMatches = 100

// Trainer orquesta un entrenamiento completo: features, banco de modelos y
// modelo de goles, empaquetados en un bundle inmutable y versionado.
type Trainer struct {
	cfg     *config.Config
	store   ports.MatchStore
	bundles ports.BundleStore
	now     func() time.Time
}

// NewTrainer crea un Trainer con todas las dependencias inyectadas.
func NewTrainer(cfg *config.Config, store ports.MatchStore, bundles ports.BundleStore) *Trainer {
	return &Trainer{cfg: cfg, store: store, bundles: bundles, now: time.Now}
}

// Train entrena sobre el dataset completo y persiste el bundle resultante.
func (t *Trainer) Train(ctx context.Context) (*domain.ModelBundle, error) {
	bundle, err := t.buildBundle(ctx, nil)
	if err != nil {
		return nil, err
	}
	if err := t.bundles.SaveBundle(ctx, bundle); err != nil {
		return nil, fmt.Errorf("pipeline.Train: persistir bundle: %w", err)
	}
	slog.Info("training complete",
		"version", bundle.Version,
		"models", len(bundle.Models),
		"teams", len(bundle.Strengths),
		"converged", bundle.GoalFit.Converged,
	)
	return bundle, nil
}

// buildBundle entrena sin persistir. Si until no es nil, solo usa partidos
// estrictamente anteriores; el backtest lo necesita para no entrenar con el
// futuro que luego evalúa.
func (t *Trainer) buildBundle(ctx context.Context, until *time.Time) (*domain.ModelBundle, error) {
	start := t.now()

	matches, err := t.store.AllMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline.buildBundle: cargar dataset: %w", err)
	}
	if until != nil {
		matches = matchesBefore(matches, *until)
	}
	if len(matches) < minTrainingMatches {
		return nil, fmt.Errorf("%w: %d partidos, mínimo %d",
			domain.ErrInsufficientData, len(matches), minTrainingMatches)
	}

	engineer := features.NewEngineer(t.store, t.cfg.Features)
	samples, err := engineer.BuildTrainingSet(ctx, matches, t.cfg.Pipeline.Workers)
	if err != nil {
		return nil, fmt.Errorf("pipeline.buildBundle: features: %w", err)
	}

	models := modelbank.NewTrainer(t.cfg.Models).TrainAll(samples)

	asOf := t.now()
	if until != nil {
		asOf = *until
	}
	strengths, fitParams := goalmodel.NewFitter(t.cfg.Goals).Fit(matches, asOf)

	bundle := &domain.ModelBundle{
		Version:   uuid.NewString(),
		CreatedAt: t.now(),
		Schema:    domain.SchemaVersion,
		Models:    models,
		Strengths: strengths,
		GoalFit:   fitParams,
	}
	bundle.LeagueAvgGoals, bundle.LeagueAvgCorners, bundle.LeagueAvgShots = leagueAverages(matches)

	slog.Debug("bundle built",
		"matches", len(matches),
		"samples", len(samples),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return bundle, nil
}

// leagueAverages calcula los promedios por partido del dataset. Corners y
// tiros solo promedian los partidos que publican la estadística.
func leagueAverages(matches []domain.MatchRecord) (goals, corners, shots float64) {
	var goalSum float64
	var cornerSum, cornerN, shotSum, shotN float64
	for _, m := range matches {
		goalSum += float64(m.TotalGoals())
		if c, ok := m.TotalCorners(); ok {
			cornerSum += float64(c)
			cornerN++
		}
		if s, ok := m.TotalShots(); ok {
			shotSum += float64(s)
			shotN++
		}
	}
	goals = goalSum / float64(len(matches))
	if cornerN > 0 {
		corners = cornerSum / cornerN
	}
	if shotN > 0 {
		shots = shotSum / shotN
	}
	return goals, corners, shots
}

func matchesBefore(matches []domain.MatchRecord, cutoff time.Time) []domain.MatchRecord {
	out := make([]domain.MatchRecord, 0, len(matches))
	for _, m := range matches {
		if m.Date.Before(cutoff) {
			out = append(out, m)
		}
	}
	return out
}
