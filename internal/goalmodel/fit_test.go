package goalmodel

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

func fitConfig() config.Goals {
	return config.Goals{
		DecayHalfLifeDays: 365,
		MaxIterations:     2000,
		Tolerance:         1e-6,
		LearningRate:      0.01,
		MaxGoals:          14,
		MinTeamMatches:    3,
	}
}

// syntheticLeague genera varias vueltas de una liga de 4 equipos donde STR
// golea siempre y WEA pierde siempre.
func syntheticLeague(rounds int) []domain.MatchRecord {
	teams := []string{"STR", "MID1", "MID2", "WEA"}
	score := func(home, away string) (int, int) {
		switch {
		case home == "STR":
			return 3, 0
		case away == "STR":
			return 0, 2
		case home == "WEA":
			return 0, 2
		case away == "WEA":
			return 2, 0
		default:
			return 1, 1
		}
	}

	var out []domain.MatchRecord
	id := 0
	start := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	for r := 0; r < rounds; r++ {
		for i := range teams {
			for j := range teams {
				if i == j {
					continue
				}
				hg, ag := score(teams[i], teams[j])
				out = append(out, domain.MatchRecord{
					ID:          fmt.Sprintf("s%d", id),
					Competition: "SYN",
					Season:      2024,
					HomeTeam:    teams[i],
					AwayTeam:    teams[j],
					Date:        start.AddDate(0, 0, id),
					HomeGoals:   hg,
					AwayGoals:   ag,
				})
				id++
			}
		}
	}
	return out
}

func TestFitRanksTeams(t *testing.T) {
	matches := syntheticLeague(4)
	fitter := NewFitter(fitConfig())

	strengths, params := fitter.Fit(matches, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	require.True(t, params.Converged, "la liga sintética debe converger")
	assert.Greater(t, params.Iterations, 0)

	str := strengths["STR"]
	wea := strengths["WEA"]
	assert.Greater(t, str.Attack, wea.Attack, "el dominante ataca mejor")
	assert.Less(t, str.Defense, wea.Defense, "el dominante concede menos")
	assert.Equal(t, 24, str.Matches)
}

// El fit debe converger con la configuración por defecto de producción, no
// solo con presupuestos de iteraciones inflados: de lo contrario el modelo de
// goles degradaría siempre a fuerzas neutras en ejecuciones reales.
func TestFitConvergesWithProductionDefaults(t *testing.T) {
	matches := syntheticLeague(4)
	fitter := NewFitter(config.Goals{
		DecayHalfLifeDays: 180,
		MaxIterations:     2000,
		Tolerance:         1e-6,
		LearningRate:      0.01,
		MaxGoals:          14,
		MinTeamMatches:    5,
	})

	strengths, params := fitter.Fit(matches, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	require.True(t, params.Converged, "los valores por defecto deben bastar para converger")
	assert.Less(t, params.Iterations, 2000)
	assert.Greater(t, strengths["STR"].Attack, strengths["WEA"].Attack)
}

// La proyección de identificabilidad no puede alterar la verosimilitud: la
// media restada al ataque se compensa en la defensa y cada λ queda igual.
func TestNormalizeAttackKeepsLambdas(t *testing.T) {
	teams := []string{"AAA", "BBB", "CCC"}
	attack := map[string]float64{"AAA": 0.9, "BBB": 0.3, "CCC": -0.3}
	defense := map[string]float64{"AAA": -0.2, "BBB": 0.1, "CCC": 0.4}

	before := make(map[string]float64)
	for _, h := range teams {
		for _, a := range teams {
			if h == a {
				continue
			}
			before[h+a] = attack[h] + defense[a]
		}
	}

	normalizeAttack(teams, attack, defense)

	sum := 0.0
	for _, tm := range teams {
		sum += attack[tm]
	}
	assert.InDelta(t, 0.0, sum, 1e-12)
	for _, h := range teams {
		for _, a := range teams {
			if h == a {
				continue
			}
			assert.InDelta(t, before[h+a], attack[h]+defense[a], 1e-12)
		}
	}
}

func TestFitAttackZeroSum(t *testing.T) {
	matches := syntheticLeague(4)
	fitter := NewFitter(fitConfig())

	strengths, params := fitter.Fit(matches, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, params.Converged)

	sum := 0.0
	for _, s := range strengths {
		sum += s.Attack
	}
	assert.InDelta(t, 0.0, sum, 1e-6)
}

func TestFitEmptyDataset(t *testing.T) {
	fitter := NewFitter(fitConfig())

	strengths, params := fitter.Fit(nil, time.Now())

	assert.Empty(t, strengths)
	assert.False(t, params.Converged)
	assert.Equal(t, defaultRho, params.Rho)
}

// Un equipo que nunca jugó no rompe el fit: simplemente no aparece en el mapa
// y el Model lo trata como neutro.
func TestFitUnknownTeamFallsBackToNeutral(t *testing.T) {
	matches := syntheticLeague(4)
	fitter := NewFitter(fitConfig())
	cfg := fitConfig()

	strengths, params := fitter.Fit(matches, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	_, known := strengths["GHOST"]
	assert.False(t, known)

	model := NewModel(strengths, params, cfg.MaxGoals)
	p := model.Predict("GHOST", "STR")
	assert.InDelta(t, 1.0, p.Result.Sum(), 1e-12)
}

func TestFitFewMatchesStaysNeutral(t *testing.T) {
	// ONE solo juega 2 partidos, por debajo de min_team_matches.
	matches := syntheticLeague(4)
	extra := []domain.MatchRecord{
		{ID: "x1", Competition: "SYN", Season: 2024, HomeTeam: "ONE", AwayTeam: "STR",
			Date: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), HomeGoals: 0, AwayGoals: 4},
		{ID: "x2", Competition: "SYN", Season: 2024, HomeTeam: "MID1", AwayTeam: "ONE",
			Date: time.Date(2024, 12, 8, 0, 0, 0, 0, time.UTC), HomeGoals: 2, AwayGoals: 0},
	}
	fitter := NewFitter(fitConfig())

	strengths, params := fitter.Fit(append(matches, extra...), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, params.Converged)

	one := strengths["ONE"]
	assert.Equal(t, 0.0, one.Attack)
	assert.Equal(t, 0.0, one.Defense)
	assert.Equal(t, 2, one.Matches)
}

func TestTimeWeight(t *testing.T) {
	fitter := NewFitter(fitConfig())
	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 1.0, fitter.timeWeight(asOf, asOf), 1e-9)
	assert.InDelta(t, 0.5, fitter.timeWeight(asOf.AddDate(0, 0, -365), asOf), 1e-9)
	assert.InDelta(t, 0.25, fitter.timeWeight(asOf.AddDate(0, 0, -730), asOf), 1e-9)

	noDecay := NewFitter(config.Goals{MaxIterations: 10, Tolerance: 1e-5, LearningRate: 0.01})
	assert.Equal(t, 1.0, noDecay.timeWeight(asOf.AddDate(-3, 0, 0), asOf))
}
