package goalmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

func neutralModel(rho float64) *Model {
	return NewModel(
		map[string]domain.TeamStrength{},
		domain.GoalFitParams{HomeAdvantage: 0.3, Rho: rho},
		14,
	)
}

func TestTau(t *testing.T) {
	rho := -0.13
	lh, la := 1.8, 1.1

	// Con rho negativo el 0-0 se refuerza y el 1-0/0-1 se debilita.
	assert.InDelta(t, 1+1.8*1.1*0.13, tau(0, 0, lh, la, rho), 1e-9)
	assert.InDelta(t, 1-1.1*0.13, tau(1, 0, lh, la, rho), 1e-9)
	assert.InDelta(t, 1-1.8*0.13, tau(0, 1, lh, la, rho), 1e-9)
	assert.InDelta(t, 1.13, tau(1, 1, lh, la, rho), 1e-9)
	assert.Equal(t, 1.0, tau(2, 1, lh, la, rho))
	assert.Equal(t, 1.0, tau(3, 3, lh, la, rho))
}

func TestScoreMatrixNormalized(t *testing.T) {
	m := neutralModel(-0.13)
	matrix := m.ScoreMatrix(1.8, 1.1)

	total := 0.0
	for _, row := range matrix {
		for _, p := range row {
			assert.GreaterOrEqual(t, p, 0.0)
			total += p
		}
	}
	assert.InDelta(t, 1.0, total, 1e-12)

	// Over y Under son complementarios exactos tras normalizar.
	over := OverProb(matrix, 2.5)
	under := 1 - over
	assert.InDelta(t, 1.0, over+under, 1e-12)
	assert.Greater(t, over, 0.0)
	assert.Less(t, over, 1.0)
}

func TestScoreMatrixLowScoreCorrelation(t *testing.T) {
	withRho := neutralModel(-0.13).ScoreMatrix(1.8, 1.1)
	without := neutralModel(0).ScoreMatrix(1.8, 1.1)

	// Rho negativo refuerza el 0-0 frente al producto independiente.
	assert.Greater(t, withRho[0][0], without[0][0])
	assert.Less(t, withRho[1][0], without[1][0])
}

func TestOutcomeTriangles(t *testing.T) {
	m := neutralModel(-0.13)
	matrix := m.ScoreMatrix(2.2, 0.8)
	p := Outcome(matrix)

	assert.InDelta(t, 1.0, p.Sum(), 1e-12)
	assert.Greater(t, p.Home, p.Away, "el equipo con mayor lambda debe ser favorito")
}

func TestBTTSProb(t *testing.T) {
	m := neutralModel(0)
	matrix := m.ScoreMatrix(1.5, 1.2)

	btts := BTTSProb(matrix)
	noBTTS := 0.0
	for h := range matrix {
		for a := range matrix[h] {
			if h == 0 || a == 0 {
				noBTTS += matrix[h][a]
			}
		}
	}
	assert.InDelta(t, 1.0, btts+noBTTS, 1e-12)
}

func TestLambdasUnknownTeamIsNeutral(t *testing.T) {
	m := NewModel(
		map[string]domain.TeamStrength{
			"ARS": {Team: "ARS", Attack: 0.4, Defense: -0.3, Matches: 30},
		},
		domain.GoalFitParams{HomeAdvantage: 0.3, Rho: -0.13},
		14,
	)

	lh, la := m.Lambdas("NEWLY_PROMOTED", "ALSO_NEW")
	assert.InDelta(t, math.Exp(0.3), lh, 1e-9)
	assert.InDelta(t, 1.0, la, 1e-9)
}

func TestPredict(t *testing.T) {
	m := neutralModel(-0.13)
	p := m.Predict("A", "B")

	require.InDelta(t, 1.0, p.Result.Sum(), 1e-12)
	assert.Greater(t, p.LambdaHome, p.LambdaAway, "la ventaja local sube el lambda del local")
	assert.Greater(t, p.Over25, 0.0)
	assert.Greater(t, p.BTTS, 0.0)
}
