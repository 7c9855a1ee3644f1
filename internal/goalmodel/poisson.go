package goalmodel

import "math"

// poissonPMF devuelve P(X = k) para X ~ Poisson(lambda).
func poissonPMF(lambda float64, k int) float64 {
	if k < 0 || lambda <= 0 {
		return 0
	}
	return math.Exp(float64(k)*math.Log(lambda) - lambda - logFactorial(k))
}

// logFactorial calcula log(n!). Usa la aproximación de Stirling para n grande.
func logFactorial(n int) float64 {
	if n < 2 {
		return 0
	}
	if n < 10 {
		result := 0.0
		for i := 2; i <= n; i++ {
			result += math.Log(float64(i))
		}
		return result
	}
	nf := float64(n)
	return nf*math.Log(nf) - nf + 0.5*math.Log(2*math.Pi*nf)
}

// tau es la corrección de Dixon-Coles para marcadores bajos. Los resultados
// 0-0, 1-0, 0-1 y 1-1 están correlacionados entre sí más de lo que dos
// Poisson independientes predicen; rho (típicamente negativo) lo corrige.
// El resto de marcadores no se ajusta.
func tau(homeGoals, awayGoals int, lambdaHome, lambdaAway, rho float64) float64 {
	switch {
	case homeGoals == 0 && awayGoals == 0:
		return 1 - lambdaHome*lambdaAway*rho
	case homeGoals == 1 && awayGoals == 0:
		return 1 + lambdaAway*rho
	case homeGoals == 0 && awayGoals == 1:
		return 1 + lambdaHome*rho
	case homeGoals == 1 && awayGoals == 1:
		return 1 - rho
	default:
		return 1
	}
}
