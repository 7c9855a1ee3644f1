package domain

import "time"

// Grade clasifica una apuesta de valor por el tamaño del edge.
type Grade string

const (
	GradeAPlus Grade = "A+" // edge > 10%
	GradeA     Grade = "A"  // 7–10%
	GradeB     Grade = "B"  // 5–7%
	GradeC     Grade = "C"  // 3–5%
	GradeD     Grade = "D"  // 2–3%
	GradeNone  Grade = ""   // sin recomendación
)

// Recommendation es una apuesta de valor detectada. Es un output derivado:
// el core no la persiste.
type Recommendation struct {
	ID        string
	MatchID   string
	HomeTeam  string
	AwayTeam  string
	Market    Market
	Outcome   Outcome
	Bookmaker string
	Odds      float64

	ModelProb   float64
	ImpliedProb float64 // con el overround removido
	Edge        float64 // ModelProb − ImpliedProb
	MarginPct   float64 // margen del bookmaker en este mercado

	KellyFraction float64
	Stake         float64
	ExpectedValue float64
	ROI           float64 // EV / stake × 100

	Grade      Grade
	Confidence int
	CreatedAt  time.Time
}

// Edge devuelve la diferencia entre la probabilidad del modelo y la
// probabilidad implícita normalizada. > 0 indica valor potencial.
func Edge(modelProb, impliedProb float64) float64 {
	return modelProb - impliedProb
}

// KellyFraction devuelve la fracción de Kelly completa para una probabilidad
// y cuota decimal: (p×odds − 1) / (odds − 1). Devuelve 0 si no hay edge
// bruto o la cuota es inválida.
func KellyFraction(prob, odds float64) float64 {
	if odds <= 1 {
		return 0
	}
	rawEdge := prob*odds - 1
	if rawEdge <= 0 {
		return 0
	}
	return rawEdge / (odds - 1)
}

// KellyStake devuelve el stake recomendado: bankroll × kelly × multiplier,
// con tope en maxFraction×bankroll y piso en 0. El multiplier fraccional
// (0.25 por defecto) protege contra la varianza del Kelly completo.
func KellyStake(prob, odds, bankroll, multiplier, maxFraction float64) float64 {
	kelly := KellyFraction(prob, odds)
	if kelly <= 0 || bankroll <= 0 {
		return 0
	}
	stake := bankroll * kelly * multiplier
	if cap := bankroll * maxFraction; stake > cap {
		stake = cap
	}
	if stake < 0 {
		stake = 0
	}
	return stake
}

// ExpectedValue devuelve el EV monetario de una apuesta:
// p × stake × (odds−1) − (1−p) × stake.
func ExpectedValue(prob, odds, stake float64) float64 {
	return prob*stake*(odds-1) - (1-prob)*stake
}

// GradeForEdge asigna la calificación según la magnitud del edge sobre la
// probabilidad implícita. Edge ≤ 2% no recibe calificación.
func GradeForEdge(edge float64) Grade {
	switch {
	case edge > 0.10:
		return GradeAPlus
	case edge > 0.07:
		return GradeA
	case edge > 0.05:
		return GradeB
	case edge > 0.03:
		return GradeC
	case edge > 0.02:
		return GradeD
	default:
		return GradeNone
	}
}
