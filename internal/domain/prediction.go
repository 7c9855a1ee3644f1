package domain

import "time"

// Market identifica uno de los 8 mercados que cubre el engine.
type Market string

const (
	MarketResult         Market = "result"            // 1X2, 3 clases
	MarketOver25         Market = "over_25"           // binario
	MarketBTTS           Market = "btts"              // binario
	MarketOver95Corners  Market = "over_95_corners"   // binario
	MarketOver105Corners Market = "over_105_corners"  // binario
	MarketTotalCorners   Market = "total_corners"     // regresión
	MarketTotalShots     Market = "total_shots"       // regresión
	MarketTotalSOT       Market = "total_shots_on_target" // regresión
)

// ClassifierMarkets son los mercados servidos por clasificadores calibrados.
var ClassifierMarkets = []Market{
	MarketResult, MarketOver25, MarketBTTS, MarketOver95Corners, MarketOver105Corners,
}

// RegressorMarkets son los mercados servidos por regresores.
var RegressorMarkets = []Market{
	MarketTotalCorners, MarketTotalShots, MarketTotalSOT,
}

// Outcome es un resultado apostable dentro de un mercado.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
	OutcomeYes  Outcome = "yes"
	OutcomeNo   Outcome = "no"
)

// Prob3 es una distribución 1X2.
type Prob3 struct {
	Home float64
	Draw float64
	Away float64
}

// Normalize reescala la distribución para que sume exactamente 1.
func (p Prob3) Normalize() Prob3 {
	sum := p.Home + p.Draw + p.Away
	if sum <= 0 {
		return Prob3{Home: 1.0 / 3, Draw: 1.0 / 3, Away: 1.0 / 3}
	}
	return Prob3{Home: p.Home / sum, Draw: p.Draw / sum, Away: p.Away / sum}
}

// Sum devuelve la masa total de la distribución.
func (p Prob3) Sum() float64 { return p.Home + p.Draw + p.Away }

// ProbFor devuelve la probabilidad del outcome dado.
func (p Prob3) ProbFor(o Outcome) float64 {
	switch o {
	case OutcomeHome:
		return p.Home
	case OutcomeDraw:
		return p.Draw
	case OutcomeAway:
		return p.Away
	}
	return 0
}

// MarketProb encapsula la probabilidad "sí" de un mercado binario junto con
// su disponibilidad: un mercado puede faltar por schema mismatch o por no
// tener modelo entrenado ni análogo Poisson.
type MarketProb struct {
	Yes   float64
	Valid bool
}

// Estimate es el punto estimado de un mercado de regresión.
type Estimate struct {
	Value float64
	Valid bool
}

// Prediction es el paquete de predicciones por mercado de un partido,
// versionado por el bundle que lo produjo. Se crea una vez y no se edita:
// un bundle nuevo produce una Prediction nueva.
type Prediction struct {
	MatchID  string
	HomeTeam string
	AwayTeam string
	KickOff  time.Time

	BundleVersion string
	Schema        string

	Result      Prob3
	ResultValid bool

	Over25         MarketProb
	BTTS           MarketProb
	Over95Corners  MarketProb
	Over105Corners MarketProb

	TotalCorners Estimate
	TotalShots   Estimate
	TotalSOT     Estimate

	// Goles esperados del modelo Poisson (0 si no hubo fit válido).
	LambdaHome float64
	LambdaAway float64

	// Confidence 0-100: acuerdo entre ModelBank y GoalModel en los mercados
	// compartidos. 0 cuando solo una fuente estuvo disponible.
	Confidence int

	// LowConfidence hereda el flag del FeatureVector.
	LowConfidence bool

	// Skipped registra los mercados omitidos o degradados y el motivo (nunca
	// se descartan en silencio). Un mercado puede figurar aquí y aun así
	// traer probabilidad válida, si una sola fuente lo sirvió.
	Skipped map[Market]string
}

// HasBettableMarket informa si al menos un mercado apostable trae
// probabilidad válida. Una Prediction sin ninguno no puede cruzarse con
// cuotas.
func (p Prediction) HasBettableMarket() bool {
	return p.ResultValid || p.Over25.Valid || p.BTTS.Valid ||
		p.Over95Corners.Valid || p.Over105Corners.Valid
}

// ProbFor devuelve la probabilidad del modelo para (market, outcome).
// ok es false si el mercado no está disponible en esta Prediction.
func (p Prediction) ProbFor(market Market, outcome Outcome) (float64, bool) {
	switch market {
	case MarketResult:
		if !p.ResultValid {
			return 0, false
		}
		return p.Result.ProbFor(outcome), true
	case MarketOver25:
		return binaryProb(p.Over25, outcome)
	case MarketBTTS:
		return binaryProb(p.BTTS, outcome)
	case MarketOver95Corners:
		return binaryProb(p.Over95Corners, outcome)
	case MarketOver105Corners:
		return binaryProb(p.Over105Corners, outcome)
	}
	return 0, false
}

func binaryProb(mp MarketProb, outcome Outcome) (float64, bool) {
	if !mp.Valid {
		return 0, false
	}
	switch outcome {
	case OutcomeYes:
		return mp.Yes, true
	case OutcomeNo:
		return 1 - mp.Yes, true
	}
	return 0, false
}
