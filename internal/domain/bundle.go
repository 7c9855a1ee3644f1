package domain

import "time"

// ModelKind distingue el tipo de estimador base de un TrainedModel.
type ModelKind string

const (
	KindSoftmax    ModelKind = "softmax"    // clasificador 3 clases
	KindLogistic   ModelKind = "logistic"   // clasificador binario
	KindRegression ModelKind = "regression" // regresión lineal
)

// Calibration son los parámetros de calibración de un clasificador,
// ajustados contra la partición held-out.
type Calibration struct {
	Method      string  `json:"method"` // "platt" | "temperature" | "none"
	A           float64 `json:"a"`      // platt: pendiente
	B           float64 `json:"b"`      // platt: intercepto
	Temperature float64 `json:"temperature"`
}

// ReliabilityBin es un bucket del diagrama de fiabilidad calculado sobre la
// partición de calibración.
type ReliabilityBin struct {
	MeanPredicted float64 `json:"mean_predicted"`
	ObservedFreq  float64 `json:"observed_freq"`
	Count         int     `json:"count"`
}

// Metrics son las métricas de evaluación almacenadas junto al modelo:
// accuracy/log-loss para clasificadores, MAE para regresores.
type Metrics struct {
	Accuracy    float64          `json:"accuracy,omitempty"`
	LogLoss     float64          `json:"log_loss,omitempty"`
	MAE         float64          `json:"mae,omitempty"`
	EvalSamples int              `json:"eval_samples"`
	Reliability []ReliabilityBin `json:"reliability,omitempty"`
}

// TrainedModel es el estimador entrenado de un mercado. Inmutable: reentrenar
// produce un modelo nuevo, nunca muta este.
type TrainedModel struct {
	Market  Market    `json:"market"`
	Kind    ModelKind `json:"kind"`
	Schema  string    `json:"schema"`
	Classes int       `json:"classes"` // 3 para result, 2 para binarios, 1 regresión

	// Weights es [clase][feature]; para regresión es una sola fila.
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`

	// Estandarización ajustada en entrenamiento.
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`

	Calibration Calibration `json:"calibration"`
	Metrics     Metrics     `json:"metrics"`
}

// ModelBundle es el artefacto inmutable de un entrenamiento completo: los 8
// modelos de mercado, la tabla de fuerzas del modelo de goles y sus
// parámetros de fit. Se pasa explícitamente a cada predict/evaluate; no hay
// estado global de proceso.
type ModelBundle struct {
	Version   string    `json:"version"` // uuid
	CreatedAt time.Time `json:"created_at"`
	Schema    string    `json:"schema"`

	Models map[Market]TrainedModel `json:"models"`

	Strengths map[string]TeamStrength `json:"strengths"`
	GoalFit   GoalFitParams           `json:"goal_fit"`

	// Promedios de liga observados en el dataset de entrenamiento.
	LeagueAvgGoals   float64 `json:"league_avg_goals"`
	LeagueAvgCorners float64 `json:"league_avg_corners"`
	LeagueAvgShots   float64 `json:"league_avg_shots"`
}

// HasModel indica si el bundle tiene modelo entrenado para el mercado.
func (b ModelBundle) HasModel(m Market) bool {
	_, ok := b.Models[m]
	return ok
}

// HasGoalFit indica si hay un fit Poisson utilizable para ambos equipos.
func (b ModelBundle) HasGoalFit(home, away string) bool {
	if len(b.Strengths) == 0 {
		return false
	}
	_, okH := b.Strengths[home]
	_, okA := b.Strengths[away]
	return okH && okA
}
