package domain

import "time"

// OddsQuote es una cuota decimal de un bookmaker para un outcome concreto.
// Input externo de solo lectura.
type OddsQuote struct {
	MatchID   string
	Bookmaker string
	Market    Market
	Outcome   Outcome
	Decimal   float64
	Timestamp time.Time
}

// ImpliedProbability convierte una cuota decimal en probabilidad implícita.
// Incluye el margen del bookmaker; ver RemoveOverround.
func (q OddsQuote) ImpliedProbability() float64 {
	if q.Decimal <= 1 {
		return 0
	}
	return 1 / q.Decimal
}

// Overround devuelve la suma de probabilidades implícitas de un set de
// outcomes mutuamente excluyentes. > 1.0 es el margen del bookmaker.
func Overround(quotes []OddsQuote) float64 {
	var sum float64
	for _, q := range quotes {
		sum += q.ImpliedProbability()
	}
	return sum
}

// RemoveOverround normaliza proporcionalmente las probabilidades implícitas
// de un set excluyente para que sumen 1. Devuelve la probabilidad "justa"
// por outcome, en el mismo orden que quotes.
func RemoveOverround(quotes []OddsQuote) []float64 {
	total := Overround(quotes)
	probs := make([]float64, len(quotes))
	if total <= 0 {
		return probs
	}
	for i, q := range quotes {
		probs[i] = q.ImpliedProbability() / total
	}
	return probs
}

// MarginPct devuelve el margen del bookmaker en porcentaje (overround − 1).
func MarginPct(quotes []OddsQuote) float64 {
	return (Overround(quotes) - 1) * 100
}
