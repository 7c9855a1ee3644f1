package goalmodel

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// defaultRho es la correlación de marcadores bajos. Se mantiene fija durante
// el ajuste: es estable entre ligas y estimarla por gradiente es frágil con
// pocos datos.
const defaultRho = -0.13

// initialHomeAdvantage es la ventaja local inicial en espacio log (~1.35x).
const initialHomeAdvantage = 0.3

// Fitter estima los coeficientes de ataque y defensa por equipo y la ventaja
// local mediante ascenso de gradiente sobre la verosimilitud de Dixon-Coles.
type Fitter struct {
	cfg config.Goals
}

// NewFitter crea un Fitter con la configuración dada.
func NewFitter(cfg config.Goals) *Fitter {
	return &Fitter{cfg: cfg}
}

// Fit ajusta el modelo sobre los partidos dados. asOf es el presente para la
// ponderación temporal: un partido de hace media vida pesa la mitad.
//
// Nunca devuelve error por problemas numéricos: si la verosimilitud se vuelve
// no finita o el presupuesto de iteraciones se agota sin converger, devuelve
// fuerzas neutras con Converged=false y deja un warning. Un equipo sin
// partidos simplemente no aparece en el mapa; quien consulta usa la fuerza
// neutra (0,0).
func (f *Fitter) Fit(matches []domain.MatchRecord, asOf time.Time) (map[string]domain.TeamStrength, domain.GoalFitParams) {
	params := domain.GoalFitParams{
		HomeAdvantage:     initialHomeAdvantage,
		Rho:               defaultRho,
		DecayHalfLifeDays: f.cfg.DecayHalfLifeDays,
	}

	teams := collectTeams(matches)
	if len(teams) == 0 || len(matches) == 0 {
		return map[string]domain.TeamStrength{}, params
	}

	attack := make(map[string]float64, len(teams))
	defense := make(map[string]float64, len(teams))
	counts := make(map[string]int, len(teams))
	for _, t := range teams {
		attack[t] = 0
		defense[t] = 0
	}

	weights := make([]float64, len(matches))
	for i, m := range matches {
		weights[i] = f.timeWeight(m.Date, asOf)
		counts[m.HomeTeam]++
		counts[m.AwayTeam]++
	}

	prevLL := math.Inf(-1)
	for iter := 0; iter < f.cfg.MaxIterations; iter++ {
		ll := f.logLikelihood(matches, weights, attack, defense, params)
		if math.IsNaN(ll) || math.IsInf(ll, 1) {
			slog.Warn("goal model likelihood no finita, usando fuerzas neutras",
				"iteration", iter,
			)
			return neutralStrengths(teams, counts), params
		}
		if math.Abs(ll-prevLL) < f.cfg.Tolerance {
			params.LogLikelihood = ll
			params.Iterations = iter + 1
			params.Converged = true
			return f.strengths(teams, counts, attack, defense), params
		}
		f.step(matches, weights, attack, defense, &params)
		normalizeAttack(teams, attack, defense)
		prevLL = ll
	}

	slog.Warn("goal model no convergió, usando fuerzas neutras",
		"iterations", f.cfg.MaxIterations,
		"log_likelihood", prevLL,
	)
	params.LogLikelihood = prevLL
	params.Iterations = f.cfg.MaxIterations
	return neutralStrengths(teams, counts), params
}

// timeWeight pondera un partido por antigüedad con decaimiento exponencial.
func (f *Fitter) timeWeight(date, asOf time.Time) float64 {
	if f.cfg.DecayHalfLifeDays <= 0 {
		return 1
	}
	days := asOf.Sub(date).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Pow(0.5, days/f.cfg.DecayHalfLifeDays)
}

func (f *Fitter) logLikelihood(matches []domain.MatchRecord, weights []float64, attack, defense map[string]float64, params domain.GoalFitParams) float64 {
	ll := 0.0
	for i, m := range matches {
		lh := math.Exp(attack[m.HomeTeam] + defense[m.AwayTeam] + params.HomeAdvantage)
		la := math.Exp(attack[m.AwayTeam] + defense[m.HomeTeam])

		p := poissonPMF(lh, m.HomeGoals) * poissonPMF(la, m.AwayGoals) *
			tau(m.HomeGoals, m.AwayGoals, lh, la, params.Rho)
		if p <= 0 {
			return math.NaN()
		}
		ll += weights[i] * math.Log(p)
	}
	return ll
}

// step da un paso de ascenso de gradiente sobre ataque, defensa y ventaja
// local. El gradiente Poisson es (goles observados − goles esperados).
func (f *Fitter) step(matches []domain.MatchRecord, weights []float64, attack, defense map[string]float64, params *domain.GoalFitParams) {
	gradAttack := make(map[string]float64, len(attack))
	gradDefense := make(map[string]float64, len(defense))
	gradHA := 0.0

	for i, m := range matches {
		lh := math.Exp(attack[m.HomeTeam] + defense[m.AwayTeam] + params.HomeAdvantage)
		la := math.Exp(attack[m.AwayTeam] + defense[m.HomeTeam])
		w := weights[i]

		dHome := w * (float64(m.HomeGoals) - lh)
		dAway := w * (float64(m.AwayGoals) - la)

		gradAttack[m.HomeTeam] += dHome
		gradDefense[m.AwayTeam] += dHome
		gradAttack[m.AwayTeam] += dAway
		gradDefense[m.HomeTeam] += dAway
		gradHA += dHome
	}

	lr := f.cfg.LearningRate
	for t := range attack {
		attack[t] += lr * gradAttack[t]
		defense[t] += lr * gradDefense[t]
	}
	params.HomeAdvantage += lr * gradHA / float64(len(matches))
}

// normalizeAttack impone la restricción de identificabilidad: los coeficientes
// de ataque suman cero. La media restada al ataque se suma a la defensa, que
// absorbe la media de goles de la liga; cada λ lleva exactamente un término de
// ataque y uno de defensa, así que la proyección no altera la verosimilitud.
func normalizeAttack(teams []string, attack, defense map[string]float64) {
	sum := 0.0
	for _, t := range teams {
		sum += attack[t]
	}
	mean := sum / float64(len(teams))
	for _, t := range teams {
		attack[t] -= mean
		defense[t] += mean
	}
}

func (f *Fitter) strengths(teams []string, counts map[string]int, attack, defense map[string]float64) map[string]domain.TeamStrength {
	out := make(map[string]domain.TeamStrength, len(teams))
	for _, t := range teams {
		if counts[t] < f.cfg.MinTeamMatches {
			// Muy pocos partidos: el coeficiente ajustado es ruido.
			out[t] = domain.TeamStrength{Team: t, Matches: counts[t]}
			continue
		}
		out[t] = domain.TeamStrength{
			Team:    t,
			Attack:  attack[t],
			Defense: defense[t],
			Matches: counts[t],
		}
	}
	return out
}

func neutralStrengths(teams []string, counts map[string]int) map[string]domain.TeamStrength {
	out := make(map[string]domain.TeamStrength, len(teams))
	for _, t := range teams {
		out[t] = domain.TeamStrength{Team: t, Matches: counts[t]}
	}
	return out
}

func collectTeams(matches []domain.MatchRecord) []string {
	seen := make(map[string]bool)
	for _, m := range matches {
		seen[m.HomeTeam] = true
		seen[m.AwayTeam] = true
	}
	teams := make([]string, 0, len(seen))
	for t := range seen {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}
