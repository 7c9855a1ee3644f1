package modelbank

import (
	"math"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// estimators.go — regresión logística (binaria y softmax) y regresión lineal
// entrenadas por descenso de gradiente con regularización L2. Features
// estandarizadas a media 0 y desviación 1 con los momentos del train set;
// los mismos momentos se guardan en el modelo y se reaplican al predecir.

// fitStandardizer calcula media y desviación por columna sobre el train set.
func fitStandardizer(xs [][]float64) (means, stds []float64) {
	n := float64(len(xs))
	dims := len(xs[0])
	means = make([]float64, dims)
	stds = make([]float64, dims)

	for _, x := range xs {
		for j, v := range x {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}
	for _, x := range xs {
		for j, v := range x {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] < 1e-9 {
			// Columna constante: dividir por 1 la deja en cero tras centrar.
			stds[j] = 1
		}
	}
	return means, stds
}

func standardize(x []float64, means, stds []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - means[j]) / stds[j]
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(w, x []float64) float64 {
	s := 0.0
	for i := range w {
		s += w[i] * x[i]
	}
	return s
}

// softmax convierte logits en una distribución, restando el máximo para
// estabilidad numérica.
func softmax(logits []float64) []float64 {
	maxL := logits[0]
	for _, l := range logits[1:] {
		if l > maxL {
			maxL = l
		}
	}
	out := make([]float64, len(logits))
	total := 0.0
	for i, l := range logits {
		out[i] = math.Exp(l - maxL)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// trainSoftmax entrena un clasificador multinomial de k clases.
// xs ya está estandarizado; ys contiene índices de clase 0..k-1.
func trainSoftmax(xs [][]float64, ys []int, k int, cfg config.Models) (weights [][]float64, bias []float64) {
	dims := len(xs[0])
	weights = make([][]float64, k)
	for c := range weights {
		weights[c] = make([]float64, dims)
	}
	bias = make([]float64, k)
	n := float64(len(xs))

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		gradW := make([][]float64, k)
		for c := range gradW {
			gradW[c] = make([]float64, dims)
		}
		gradB := make([]float64, k)

		for i, x := range xs {
			probs := softmax(logits(weights, bias, x))
			for c := 0; c < k; c++ {
				err := probs[c]
				if ys[i] == c {
					err -= 1
				}
				for j, v := range x {
					gradW[c][j] += err * v
				}
				gradB[c] += err
			}
		}

		for c := 0; c < k; c++ {
			for j := range weights[c] {
				weights[c][j] -= cfg.LearningRate * (gradW[c][j]/n + cfg.L2*weights[c][j])
			}
			bias[c] -= cfg.LearningRate * gradB[c] / n
		}
	}
	return weights, bias
}

// trainLogistic entrena un clasificador binario. Devuelve una sola fila de
// pesos y un solo bias para mantener la misma forma de artefacto.
func trainLogistic(xs [][]float64, ys []int, cfg config.Models) (weights [][]float64, bias []float64) {
	dims := len(xs[0])
	w := make([]float64, dims)
	b := 0.0
	n := float64(len(xs))

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		gradW := make([]float64, dims)
		gradB := 0.0
		for i, x := range xs {
			err := sigmoid(dot(w, x)+b) - float64(ys[i])
			for j, v := range x {
				gradW[j] += err * v
			}
			gradB += err
		}
		for j := range w {
			w[j] -= cfg.LearningRate * (gradW[j]/n + cfg.L2*w[j])
		}
		b -= cfg.LearningRate * gradB / n
	}
	return [][]float64{w}, []float64{b}
}

// trainLinear entrena una regresión lineal con pérdida cuadrática.
func trainLinear(xs [][]float64, ys []float64, cfg config.Models) (weights [][]float64, bias []float64) {
	dims := len(xs[0])
	w := make([]float64, dims)
	b := 0.0
	n := float64(len(xs))

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		gradW := make([]float64, dims)
		gradB := 0.0
		for i, x := range xs {
			err := dot(w, x) + b - ys[i]
			for j, v := range x {
				gradW[j] += err * v
			}
			gradB += err
		}
		for j := range w {
			w[j] -= cfg.LearningRate * (gradW[j]/n + cfg.L2*w[j])
		}
		b -= cfg.LearningRate * gradB / n
	}
	return [][]float64{w}, []float64{b}
}

func logits(weights [][]float64, bias []float64, x []float64) []float64 {
	out := make([]float64, len(weights))
	for c := range weights {
		out[c] = dot(weights[c], x) + bias[c]
	}
	return out
}

// rawLogits aplica la estandarización del modelo y devuelve sus logits.
func rawLogits(m domain.TrainedModel, values []float64) []float64 {
	x := standardize(values, m.Means, m.Stds)
	return logits(m.Weights, m.Bias, x)
}
