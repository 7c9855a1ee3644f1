package modelbank

import (
	"math"
	"sort"

	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// calibration.go — calibración post-hoc contra la partición held-out.
// Un clasificador bien calibrado dice 0.60 y acierta el 60% de las veces.
// Binarios: Platt scaling sobre el logit. 3 clases: temperature scaling.

// clampProb evita log(0) en log-loss y en el ajuste de calibración.
func clampProb(p float64) float64 {
	const eps = 1e-12
	return math.Min(1-eps, math.Max(eps, p))
}

// fitPlatt ajusta p = sigmoid(a*z + b) sobre los logits held-out por
// descenso de gradiente. zs son logits crudos, ys etiquetas 0/1.
func fitPlatt(zs []float64, ys []int) domain.Calibration {
	a, b := 1.0, 0.0
	const lr = 0.01
	const epochs = 2000
	n := float64(len(zs))

	for epoch := 0; epoch < epochs; epoch++ {
		var gradA, gradB float64
		for i, z := range zs {
			err := sigmoid(a*z+b) - float64(ys[i])
			gradA += err * z
			gradB += err
		}
		a -= lr * gradA / n
		b -= lr * gradB / n
	}
	return domain.Calibration{Method: "platt", A: a, B: b, Temperature: 1}
}

// applyPlatt aplica la calibración de Platt a un logit crudo.
func applyPlatt(cal domain.Calibration, z float64) float64 {
	if cal.Method != "platt" {
		return sigmoid(z)
	}
	return sigmoid(cal.A*z + cal.B)
}

// fitTemperature busca la temperatura que minimiza la NLL softmax sobre la
// partición held-out. La búsqueda por rejilla es robusta: la NLL en T es
// unimodal y el rango útil es estrecho.
func fitTemperature(logitSets [][]float64, ys []int) domain.Calibration {
	bestT, bestNLL := 1.0, math.Inf(1)
	for t := 0.25; t <= 4.0; t += 0.05 {
		nll := 0.0
		for i, ls := range logitSets {
			probs := softmax(scaleLogits(ls, t))
			nll -= math.Log(clampProb(probs[ys[i]]))
		}
		if nll < bestNLL {
			bestNLL = nll
			bestT = t
		}
	}
	return domain.Calibration{Method: "temperature", A: 0, B: 0, Temperature: bestT}
}

// applyTemperature devuelve la distribución softmax con los logits templados.
func applyTemperature(cal domain.Calibration, logits []float64) []float64 {
	t := cal.Temperature
	if cal.Method != "temperature" || t <= 0 {
		t = 1
	}
	return softmax(scaleLogits(logits, t))
}

func scaleLogits(logits []float64, t float64) []float64 {
	out := make([]float64, len(logits))
	for i, l := range logits {
		out[i] = l / t
	}
	return out
}

// reliabilityBins agrupa predicciones held-out en bins de igual anchura y
// compara la probabilidad media predicha con la frecuencia observada.
func reliabilityBins(probs []float64, ys []int, bins int) []domain.ReliabilityBin {
	if bins <= 0 || len(probs) == 0 {
		return nil
	}
	sums := make([]float64, bins)
	hits := make([]int, bins)
	counts := make([]int, bins)

	for i, p := range probs {
		b := int(p * float64(bins))
		if b >= bins {
			b = bins - 1
		}
		sums[b] += p
		hits[b] += ys[i]
		counts[b]++
	}

	out := make([]domain.ReliabilityBin, 0, bins)
	for b := 0; b < bins; b++ {
		if counts[b] == 0 {
			continue
		}
		out = append(out, domain.ReliabilityBin{
			MeanPredicted: sums[b] / float64(counts[b]),
			ObservedFreq:  float64(hits[b]) / float64(counts[b]),
			Count:         counts[b],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MeanPredicted < out[j].MeanPredicted })
	return out
}
