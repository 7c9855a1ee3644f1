package goalmodel

import (
	"math"

	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// Model es un modelo de goles ya ajustado, listo para predecir. Es un valor
// inmutable: se construye desde el bundle y se comparte entre goroutines.
type Model struct {
	Strengths map[string]domain.TeamStrength
	Params    domain.GoalFitParams
	MaxGoals  int
}

// NewModel construye un Model desde las fuerzas y parámetros de un bundle.
func NewModel(strengths map[string]domain.TeamStrength, params domain.GoalFitParams, maxGoals int) *Model {
	if maxGoals <= 0 {
		maxGoals = 14
	}
	return &Model{Strengths: strengths, Params: params, MaxGoals: maxGoals}
}

// Lambdas devuelve los goles esperados de cada equipo. Un equipo desconocido
// usa la fuerza neutra (0,0): ni mejor ni peor que la media.
func (m *Model) Lambdas(home, away string) (float64, float64) {
	h := m.Strengths[home]
	a := m.Strengths[away]
	lh := math.Exp(h.Attack + a.Defense + m.Params.HomeAdvantage)
	la := math.Exp(a.Attack + h.Defense)
	return lh, la
}

// ScoreMatrix construye la matriz conjunta de marcadores 0..MaxGoals con la
// corrección de Dixon-Coles aplicada a los marcadores bajos, normalizada para
// sumar exactamente 1.
func (m *Model) ScoreMatrix(lambdaHome, lambdaAway float64) [][]float64 {
	n := m.MaxGoals + 1
	matrix := make([][]float64, n)
	total := 0.0
	for h := 0; h < n; h++ {
		matrix[h] = make([]float64, n)
		ph := poissonPMF(lambdaHome, h)
		for a := 0; a < n; a++ {
			p := ph * poissonPMF(lambdaAway, a) * tau(h, a, lambdaHome, lambdaAway, m.Params.Rho)
			if p < 0 {
				// Un rho extremo puede producir tau negativo en celdas de
				// lambda alto; se trunca a cero antes de normalizar.
				p = 0
			}
			matrix[h][a] = p
			total += p
		}
	}
	if total > 0 {
		for h := range matrix {
			for a := range matrix[h] {
				matrix[h][a] /= total
			}
		}
	}
	return matrix
}

// Outcome deriva las probabilidades 1X2 de la matriz de marcadores.
func Outcome(matrix [][]float64) domain.Prob3 {
	var p domain.Prob3
	for h := range matrix {
		for a := range matrix[h] {
			switch {
			case h > a:
				p.Home += matrix[h][a]
			case h == a:
				p.Draw += matrix[h][a]
			default:
				p.Away += matrix[h][a]
			}
		}
	}
	return p
}

// OverProb devuelve P(goles totales > line). La línea es fraccionaria
// (2.5, 9.5): no hay push.
func OverProb(matrix [][]float64, line float64) float64 {
	over := 0.0
	for h := range matrix {
		for a := range matrix[h] {
			if float64(h+a) > line {
				over += matrix[h][a]
			}
		}
	}
	return over
}

// BTTSProb devuelve la probabilidad de que ambos equipos anoten.
func BTTSProb(matrix [][]float64) float64 {
	p := 0.0
	for h := 1; h < len(matrix); h++ {
		for a := 1; a < len(matrix[h]); a++ {
			p += matrix[h][a]
		}
	}
	return p
}

// Predict calcula las probabilidades de los mercados de goles para un cruce.
func (m *Model) Predict(home, away string) GoalPrediction {
	lh, la := m.Lambdas(home, away)
	matrix := m.ScoreMatrix(lh, la)
	return GoalPrediction{
		LambdaHome: lh,
		LambdaAway: la,
		Result:     Outcome(matrix),
		Over25:     OverProb(matrix, 2.5),
		BTTS:       BTTSProb(matrix),
	}
}

// GoalPrediction son las probabilidades derivadas de la matriz de marcadores.
type GoalPrediction struct {
	LambdaHome float64
	LambdaAway float64
	Result     domain.Prob3
	Over25     float64
	BTTS       float64
}
