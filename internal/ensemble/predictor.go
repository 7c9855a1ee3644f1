package ensemble

import (
	"math"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
	"github.com/rodolfo150194/analyze-matches-football/internal/goalmodel"
	"github.com/rodolfo150194/analyze-matches-football/internal/modelbank"
)

// Predictor combina el banco de modelos y el modelo de goles en una única
// Prediction por partido. La mezcla es lineal con peso configurable sobre los
// mercados que ambos cubren (1X2, over 2.5, BTTS); corners y tiros solo los
// sirve el banco. Si una fuente falta, la otra responde sola.
//
// El Predictor es inmutable y seguro para uso concurrente: toda su entrada
// vive en el bundle.
type Predictor struct {
	bundle *domain.ModelBundle
	goals  *goalmodel.Model
	weight float64 // peso del banco; 1-weight para el modelo de goles
}

// New crea un Predictor sobre un bundle entrenado.
func New(bundle *domain.ModelBundle, cfg config.Ensemble, maxGoals int) *Predictor {
	p := &Predictor{bundle: bundle, weight: cfg.BlendWeight}
	if len(bundle.Strengths) > 0 {
		p.goals = goalmodel.NewModel(bundle.Strengths, bundle.GoalFit, maxGoals)
	}
	return p
}

// Predict produce la predicción completa de un partido. Nunca devuelve error:
// los mercados no disponibles quedan registrados en Skipped con su motivo, y
// los que el banco no pudo servir pero el modelo de goles sí conservan el
// motivo con una nota de degradación.
// Es idempotente: mismo bundle y mismo vector producen la misma Prediction.
func (p *Predictor) Predict(mc domain.MatchContext, fv domain.FeatureVector) domain.Prediction {
	pred := domain.Prediction{
		MatchID:       mc.MatchID,
		HomeTeam:      mc.HomeTeam,
		AwayTeam:      mc.AwayTeam,
		KickOff:       mc.KickOff,
		BundleVersion: p.bundle.Version,
		Schema:        fv.Schema,
		LowConfidence: fv.LowConfidence,
		Skipped:       make(map[domain.Market]string),
	}

	var goalPred goalmodel.GoalPrediction
	hasGoals := p.goals != nil
	if hasGoals {
		goalPred = p.goals.Predict(mc.HomeTeam, mc.AwayTeam)
		pred.LambdaHome = goalPred.LambdaHome
		pred.LambdaAway = goalPred.LambdaAway
	}

	var diffs []float64

	// 1X2
	bankResult, hasBankResult := p.bankResult(fv, &pred)
	switch {
	case hasBankResult && hasGoals:
		pred.Result = p.blend3(bankResult, goalPred.Result)
		pred.ResultValid = true
		diffs = append(diffs,
			math.Abs(bankResult.Home-goalPred.Result.Home),
			math.Abs(bankResult.Draw-goalPred.Result.Draw),
			math.Abs(bankResult.Away-goalPred.Result.Away),
		)
	case hasBankResult:
		pred.Result = bankResult.Normalize()
		pred.ResultValid = true
	case hasGoals:
		pred.Result = goalPred.Result.Normalize()
		pred.ResultValid = true
		markDegraded(&pred, domain.MarketResult)
	default:
		pred.Skipped[domain.MarketResult] = "sin modelo entrenado ni fit de goles"
	}

	// Binarios compartidos con el modelo de goles.
	pred.Over25 = p.blendBinary(domain.MarketOver25, fv, goalPred.Over25, hasGoals, &pred, &diffs)
	pred.BTTS = p.blendBinary(domain.MarketBTTS, fv, goalPred.BTTS, hasGoals, &pred, &diffs)

	// Binarios que solo cubre el banco.
	pred.Over95Corners = p.bankBinary(domain.MarketOver95Corners, fv, &pred)
	pred.Over105Corners = p.bankBinary(domain.MarketOver105Corners, fv, &pred)

	// Regresores.
	pred.TotalCorners = p.bankEstimate(domain.MarketTotalCorners, fv, &pred)
	pred.TotalShots = p.bankEstimate(domain.MarketTotalShots, fv, &pred)
	pred.TotalSOT = p.bankEstimate(domain.MarketTotalSOT, fv, &pred)

	pred.Confidence = confidence(diffs)
	return pred
}

// blend3 mezcla dos distribuciones 1X2 y renormaliza.
func (p *Predictor) blend3(bank, goals domain.Prob3) domain.Prob3 {
	w := p.weight
	return domain.Prob3{
		Home: w*bank.Home + (1-w)*goals.Home,
		Draw: w*bank.Draw + (1-w)*goals.Draw,
		Away: w*bank.Away + (1-w)*goals.Away,
	}.Normalize()
}

func (p *Predictor) bankResult(fv domain.FeatureVector, pred *domain.Prediction) (domain.Prob3, bool) {
	model, ok := p.bundle.Models[domain.MarketResult]
	if !ok {
		return domain.Prob3{}, false
	}
	probs, err := modelbank.ResultProbs(model, fv)
	if err != nil {
		pred.Skipped[domain.MarketResult] = err.Error()
		return domain.Prob3{}, false
	}
	return probs, true
}

// blendBinary mezcla P(sí) del banco con el análogo Poisson del mercado.
func (p *Predictor) blendBinary(market domain.Market, fv domain.FeatureVector, goalsProb float64, hasGoals bool, pred *domain.Prediction, diffs *[]float64) domain.MarketProb {
	bankProb, hasBank := 0.0, false
	if model, ok := p.bundle.Models[market]; ok {
		prob, err := modelbank.YesProb(model, fv)
		if err != nil {
			pred.Skipped[market] = err.Error()
		} else {
			bankProb, hasBank = prob, true
		}
	}

	switch {
	case hasBank && hasGoals:
		*diffs = append(*diffs, math.Abs(bankProb-goalsProb))
		return domain.MarketProb{Yes: p.weight*bankProb + (1-p.weight)*goalsProb, Valid: true}
	case hasBank:
		return domain.MarketProb{Yes: bankProb, Valid: true}
	case hasGoals:
		markDegraded(pred, market)
		return domain.MarketProb{Yes: goalsProb, Valid: true}
	default:
		if _, skipped := pred.Skipped[market]; !skipped {
			pred.Skipped[market] = "sin modelo entrenado ni fit de goles"
		}
		return domain.MarketProb{}
	}
}

// markDegraded conserva el motivo del fallo del banco cuando el modelo de
// goles sirve el mercado en su lugar: el mercado sale degradado, no omitido,
// y el motivo original no debe perderse.
func markDegraded(pred *domain.Prediction, market domain.Market) {
	if reason, ok := pred.Skipped[market]; ok {
		pred.Skipped[market] = reason + " (servido solo por el modelo de goles)"
	}
}

func (p *Predictor) bankBinary(market domain.Market, fv domain.FeatureVector, pred *domain.Prediction) domain.MarketProb {
	model, ok := p.bundle.Models[market]
	if !ok {
		pred.Skipped[market] = "sin modelo entrenado"
		return domain.MarketProb{}
	}
	prob, err := modelbank.YesProb(model, fv)
	if err != nil {
		pred.Skipped[market] = err.Error()
		return domain.MarketProb{}
	}
	return domain.MarketProb{Yes: prob, Valid: true}
}

func (p *Predictor) bankEstimate(market domain.Market, fv domain.FeatureVector, pred *domain.Prediction) domain.Estimate {
	model, ok := p.bundle.Models[market]
	if !ok {
		pred.Skipped[market] = "sin modelo entrenado"
		return domain.Estimate{}
	}
	v, err := modelbank.PointEstimate(model, fv)
	if err != nil {
		pred.Skipped[market] = err.Error()
		return domain.Estimate{}
	}
	return domain.Estimate{Value: v, Valid: true}
}

// confidence mide el acuerdo entre las dos fuentes: 100 es acuerdo total,
// 0 significa que solo una fuente respondió o que discrepan por completo.
func confidence(diffs []float64) int {
	if len(diffs) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range diffs {
		sum += d
	}
	c := int(math.Round(100 * (1 - sum/float64(len(diffs)))))
	if c < 0 {
		c = 0
	}
	if c > 100 {
		c = 100
	}
	return c
}
