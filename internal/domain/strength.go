package domain

// TeamStrength son los coeficientes log-lineales de un equipo estimados por
// el modelo de goles. 0/0 es el equipo neutral (promedio de liga): se usa
// como fallback cuando no hay historia o el fit no converge.
type TeamStrength struct {
	Team    string  `json:"team"`
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
	Matches int     `json:"matches"` // partidos que respaldan la estimación
}

// GoalFitParams son los parámetros globales de un fit Dixon-Coles.
type GoalFitParams struct {
	HomeAdvantage     float64 `json:"home_advantage"`
	Rho               float64 `json:"rho"`
	DecayHalfLifeDays float64 `json:"decay_half_life_days"` // 0 = sin decay
	LogLikelihood     float64 `json:"log_likelihood"`
	Iterations        int     `json:"iterations"`
	Converged         bool    `json:"converged"`
}
