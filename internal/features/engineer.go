package features

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
	"github.com/rodolfo150194/analyze-matches-football/internal/ports"
)

// historyLimit es cuántos partidos por equipo se piden al store. Cubre con
// margen la ventana de forma, el split por venue y la temporada en curso.
const historyLimit = 60

// minH2H es el mínimo de enfrentamientos directos para usar el grupo H2H.
const minH2H = 3

// Engineer calcula el vector de features de un partido usando solo partidos
// estrictamente anteriores a la fecha de corte. El cálculo es determinista:
// mismo histórico y mismo corte producen el mismo vector.
type Engineer struct {
	store ports.MatchStore
	cfg   config.Features
}

// NewEngineer crea un Engineer sobre el store de partidos dado.
func NewEngineer(store ports.MatchStore, cfg config.Features) *Engineer {
	return &Engineer{store: store, cfg: cfg}
}

// Sample es una fila del dataset de entrenamiento: el vector de features y el
// partido ya disputado del que se derivan las etiquetas.
type Sample struct {
	Vector domain.FeatureVector
	Match  domain.MatchRecord
}

// Compute calcula el vector v2.33 para el partido dado. La fecha del partido
// es la fecha de corte: ningún partido disputado en o después de ella entra
// en el cálculo. Los grupos sin historia suficiente se rellenan con los
// defaults de liga y el vector se marca low confidence.
func (e *Engineer) Compute(ctx context.Context, mc domain.MatchContext) (domain.FeatureVector, error) {
	fv := domain.FeatureVector{
		Schema:    domain.SchemaVersion,
		Cutoff:    mc.KickOff,
		Defaulted: make(map[domain.FeatureGroup]bool),
	}

	homeHist, err := e.store.MatchesBefore(ctx, mc.HomeTeam, mc.KickOff, historyLimit)
	if err != nil {
		return fv, fmt.Errorf("features: historial de %s: %w", mc.HomeTeam, err)
	}
	awayHist, err := e.store.MatchesBefore(ctx, mc.AwayTeam, mc.KickOff, historyLimit)
	if err != nil {
		return fv, fmt.Errorf("features: historial de %s: %w", mc.AwayTeam, err)
	}
	h2h, err := e.store.HeadToHeadBefore(ctx, mc.HomeTeam, mc.AwayTeam, mc.KickOff, e.cfg.H2HWindow)
	if err != nil {
		return fv, fmt.Errorf("features: h2h %s-%s: %w", mc.HomeTeam, mc.AwayTeam, err)
	}

	e.fillForm(&fv, homeHist, mc.HomeTeam, true)
	e.fillForm(&fv, awayHist, mc.AwayTeam, false)
	e.fillVenue(&fv, homeHist, mc.HomeTeam, true)
	e.fillVenue(&fv, awayHist, mc.AwayTeam, false)
	e.fillH2H(&fv, h2h, mc.HomeTeam)
	e.fillSeason(&fv, homeHist, mc, mc.HomeTeam, true)
	e.fillSeason(&fv, awayHist, mc, mc.AwayTeam, false)
	fillDerived(&fv)

	fv.LowConfidence = len(fv.Defaulted) > 0
	return fv, nil
}

// BuildTrainingSet calcula el vector de cada partido ya disputado usando su
// propia fecha como corte, en paralelo con un worker pool. Los partidos cuyo
// cálculo falla se omiten con un warning; el orden cronológico de entrada se
// conserva en la salida.
func (e *Engineer) BuildTrainingSet(ctx context.Context, matches []domain.MatchRecord, workers int) ([]Sample, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type job struct {
		idx   int
		match domain.MatchRecord
	}

	workCh := make(chan job, len(matches))
	results := make([]*Sample, len(matches))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range workCh {
				mc := domain.MatchContext{
					MatchID:     j.match.ID,
					Competition: j.match.Competition,
					Season:      j.match.Season,
					HomeTeam:    j.match.HomeTeam,
					AwayTeam:    j.match.AwayTeam,
					KickOff:     j.match.Date,
				}
				fv, err := e.Compute(ctx, mc)
				if err != nil {
					slog.Warn("feature computation failed",
						"match_id", j.match.ID,
						"err", err,
					)
					continue
				}
				// Cada worker escribe solo en su índice, sin cursor compartido.
				results[j.idx] = &Sample{Vector: fv, Match: j.match}
			}
		}()
	}

	for i, m := range matches {
		select {
		case <-ctx.Done():
			close(workCh)
			wg.Wait()
			return nil, ctx.Err()
		case workCh <- job{idx: i, match: m}:
		}
	}
	close(workCh)
	wg.Wait()

	samples := make([]Sample, 0, len(matches))
	for _, s := range results {
		if s != nil {
			samples = append(samples, *s)
		}
	}
	slog.Debug("training set built",
		"matches", len(matches),
		"samples", len(samples),
		"workers", workers,
	)
	return samples, nil
}

// fillForm calcula el grupo de forma reciente de un lado.
func (e *Engineer) fillForm(fv *domain.FeatureVector, hist []domain.MatchRecord, team string, home bool) {
	if len(hist) < e.cfg.MinHistoryPerSide {
		applyFormDefault(fv, home)
		return
	}
	off := 0
	if !home {
		off = 1
	}

	last5 := lastN(hist, e.cfg.FormWindow)
	last3 := lastN(hist, e.cfg.FormShortWindow)
	prev3 := lastN(hist[:len(hist)-len(last3)], e.cfg.FormShortWindow)

	var pts5, pts3, prevPts, gf, ga, xg float64
	for _, m := range last5 {
		pts5 += float64(m.PointsFor(team))
		gf += float64(m.GoalsFor(team))
		ga += float64(m.GoalsAgainst(team))
		if v, ok := m.XGFor(team); ok {
			xg += v
		} else {
			// Sin xG publicado, los goles anotados son el mejor proxy.
			xg += float64(m.GoalsFor(team))
		}
	}
	for _, m := range last3 {
		pts3 += float64(m.PointsFor(team))
	}
	for _, m := range prev3 {
		prevPts += float64(m.PointsFor(team))
	}

	n := float64(len(last5))
	fv.Values[domain.FeatFormPointsHome+off] = pts5
	fv.Values[domain.FeatFormPoints3Home+off] = pts3
	fv.Values[domain.FeatFormGoalsHome+off] = gf / n
	fv.Values[domain.FeatFormXGHome+off] = xg / n
	fv.Values[domain.FeatGoalDiff5Home+off] = gf - ga
	if len(prev3) > 0 {
		fv.Values[domain.FeatFormTrendHome+off] = pts3 - prevPts
	}
}

// fillVenue calcula el split por venue: solo partidos jugados en casa para el
// local, solo partidos fuera para el visitante.
func (e *Engineer) fillVenue(fv *domain.FeatureVector, hist []domain.MatchRecord, team string, home bool) {
	var venue []domain.MatchRecord
	for _, m := range hist {
		if (home && m.HomeTeam == team) || (!home && m.AwayTeam == team) {
			venue = append(venue, m)
		}
	}
	venue = lastN(venue, e.cfg.VenueWindow)
	if len(venue) < e.cfg.MinHistoryPerSide {
		applyVenueDefault(fv, home)
		return
	}

	var wins, cleanSheets int
	var gf, ga float64
	for _, m := range venue {
		if m.GoalsFor(team) > m.GoalsAgainst(team) {
			wins++
		}
		if m.GoalsAgainst(team) == 0 {
			cleanSheets++
		}
		gf += float64(m.GoalsFor(team))
		ga += float64(m.GoalsAgainst(team))
	}

	n := float64(len(venue))
	base := domain.FeatVenueWinRateHome
	if !home {
		base = domain.FeatVenueWinRateAway
	}
	fv.Values[base] = float64(wins) / n
	fv.Values[base+1] = gf / n
	fv.Values[base+2] = ga / n
	fv.Values[base+3] = float64(cleanSheets) / n
}

// fillH2H calcula el grupo head-to-head desde la perspectiva del local actual.
func (e *Engineer) fillH2H(fv *domain.FeatureVector, h2h []domain.MatchRecord, homeTeam string) {
	if len(h2h) < minH2H {
		applyH2HDefault(fv)
		return
	}

	var homeWins, btts, over25 int
	var goals float64
	for _, m := range h2h {
		if m.GoalsFor(homeTeam) > m.GoalsAgainst(homeTeam) {
			homeWins++
		}
		if m.BothTeamsScored() {
			btts++
		}
		if m.TotalGoals() > 2 {
			over25++
		}
		goals += float64(m.TotalGoals())
	}

	n := float64(len(h2h))
	fv.Values[domain.FeatH2HHomeWinRate] = float64(homeWins) / n
	fv.Values[domain.FeatH2HAvgGoals] = goals / n
	fv.Values[domain.FeatH2HBTTSRate] = float64(btts) / n
	fv.Values[domain.FeatH2HOver25Rate] = float64(over25) / n
}

// fillSeason calcula las medias de la temporada y competición en curso.
func (e *Engineer) fillSeason(fv *domain.FeatureVector, hist []domain.MatchRecord, mc domain.MatchContext, team string, home bool) {
	var season []domain.MatchRecord
	for _, m := range hist {
		if m.Season == mc.Season && m.Competition == mc.Competition {
			season = append(season, m)
		}
	}
	if len(season) < e.cfg.MinHistoryPerSide {
		applySeasonDefault(fv, home)
		return
	}

	var pts, btts, over25 int
	for _, m := range season {
		pts += m.PointsFor(team)
		if m.BothTeamsScored() {
			btts++
		}
		if m.TotalGoals() > 2 {
			over25++
		}
	}

	n := float64(len(season))
	base := domain.FeatSeasonPPGHome
	if !home {
		base = domain.FeatSeasonPPGAway
	}
	fv.Values[base] = float64(pts) / n
	fv.Values[base+1] = float64(btts) / n
	fv.Values[base+2] = float64(over25) / n
}

// fillDerived calcula las features combinadas a partir de las ya rellenadas.
func fillDerived(fv *domain.FeatureVector) {
	formHome := fv.Values[domain.FeatFormPointsHome]
	formAway := fv.Values[domain.FeatFormPointsAway]
	fv.Values[domain.FeatFormGap] = formHome - formAway

	// Índice compuesto: la forma pesa más que el historial directo porque
	// refleja la plantilla actual, no la de hace tres temporadas.
	maxPts := 15.0
	fv.Values[domain.FeatStrengthIndex] = 0.7*(formHome-formAway)/maxPts +
		0.3*(fv.Values[domain.FeatH2HHomeWinRate]-0.45)

	if fv.Values[domain.FeatSeasonBTTSHome] > 0.5 && fv.Values[domain.FeatSeasonBTTSAway] > 0.5 {
		fv.Values[domain.FeatBothHighBTTS] = 1
	}
}

// lastN devuelve los últimos n elementos de una lista ordenada ascendente.
func lastN(ms []domain.MatchRecord, n int) []domain.MatchRecord {
	if len(ms) <= n {
		return ms
	}
	return ms[len(ms)-n:]
}
