package modelbank

import (
	"log/slog"
	"math"
	"sync"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
	"github.com/rodolfo150194/analyze-matches-football/internal/features"
)

// Trainer entrena el banco completo: 5 clasificadores calibrados y 3
// regresores, uno por mercado, todos sobre el mismo schema de features.
type Trainer struct {
	cfg config.Models
}

// NewTrainer crea un Trainer con la configuración dada.
func NewTrainer(cfg config.Models) *Trainer {
	return &Trainer{cfg: cfg}
}

// TrainAll entrena los 8 mercados en paralelo. Un mercado sin muestras de
// evaluación suficientes se omite del resultado con un warning; el resto del
// banco no se ve afectado. Las muestras deben venir en orden cronológico:
// la cola temporal se reserva como held-out para métricas y calibración.
func (t *Trainer) TrainAll(samples []features.Sample) map[domain.Market]domain.TrainedModel {
	markets := make([]domain.Market, 0, 8)
	markets = append(markets, domain.ClassifierMarkets...)
	markets = append(markets, domain.RegressorMarkets...)

	type result struct {
		market domain.Market
		model  domain.TrainedModel
		ok     bool
	}
	resultCh := make(chan result, len(markets))

	var wg sync.WaitGroup
	for _, market := range markets {
		wg.Add(1)
		go func(market domain.Market) {
			defer wg.Done()
			model, ok := t.trainMarket(market, samples)
			resultCh <- result{market: market, model: model, ok: ok}
		}(market)
	}
	wg.Wait()
	close(resultCh)

	models := make(map[domain.Market]domain.TrainedModel, len(markets))
	for r := range resultCh {
		if r.ok {
			models[r.market] = r.model
		}
	}
	return models
}

// trainMarket entrena un mercado. ok=false si no hay datos suficientes.
func (t *Trainer) trainMarket(market domain.Market, samples []features.Sample) (domain.TrainedModel, bool) {
	xs, yClass, yValue := buildDataset(market, samples)
	cut := int(float64(len(xs)) * (1 - t.cfg.EvalFraction))
	if cut < 1 || len(xs)-cut < t.cfg.MinEvalSamples {
		slog.Warn("mercado omitido por muestras insuficientes",
			"market", market,
			"samples", len(xs),
			"eval", len(xs)-cut,
			"min_eval", t.cfg.MinEvalSamples,
		)
		return domain.TrainedModel{}, false
	}

	means, stds := fitStandardizer(xs[:cut])
	trainX := make([][]float64, cut)
	for i := range trainX {
		trainX[i] = standardize(xs[i], means, stds)
	}
	evalX := make([][]float64, len(xs)-cut)
	for i := range evalX {
		evalX[i] = standardize(xs[cut+i], means, stds)
	}

	model := domain.TrainedModel{
		Market: market,
		Schema: domain.SchemaVersion,
		Means:  means,
		Stds:   stds,
	}

	switch kindFor(market) {
	case domain.KindSoftmax:
		model.Kind = domain.KindSoftmax
		model.Classes = 3
		model.Weights, model.Bias = trainSoftmax(trainX, yClass[:cut], 3, t.cfg)
		t.calibrateSoftmax(&model, evalX, yClass[cut:])
	case domain.KindLogistic:
		model.Kind = domain.KindLogistic
		model.Classes = 2
		model.Weights, model.Bias = trainLogistic(trainX, yClass[:cut], t.cfg)
		t.calibrateLogistic(&model, evalX, yClass[cut:])
	case domain.KindRegression:
		model.Kind = domain.KindRegression
		model.Classes = 1
		model.Weights, model.Bias = trainLinear(trainX, yValue[:cut], t.cfg)
		model.Calibration = domain.Calibration{Method: "none", Temperature: 1}
		model.Metrics = regressionMetrics(model, evalX, yValue[cut:])
	}
	return model, true
}

func (t *Trainer) calibrateSoftmax(model *domain.TrainedModel, evalX [][]float64, ys []int) {
	logitSets := make([][]float64, len(evalX))
	for i, x := range evalX {
		logitSets[i] = logits(model.Weights, model.Bias, x)
	}
	model.Calibration = fitTemperature(logitSets, ys)

	var correct int
	logLoss := 0.0
	homeProbs := make([]float64, len(evalX))
	homeHits := make([]int, len(evalX))
	for i, ls := range logitSets {
		probs := applyTemperature(model.Calibration, ls)
		logLoss -= math.Log(clampProb(probs[ys[i]]))
		if argmax(probs) == ys[i] {
			correct++
		}
		homeProbs[i] = probs[0]
		if ys[i] == 0 {
			homeHits[i] = 1
		}
	}
	model.Metrics = domain.Metrics{
		Accuracy:    float64(correct) / float64(len(evalX)),
		LogLoss:     logLoss / float64(len(evalX)),
		EvalSamples: len(evalX),
		Reliability: reliabilityBins(homeProbs, homeHits, t.cfg.CalibrationBins),
	}
}

func (t *Trainer) calibrateLogistic(model *domain.TrainedModel, evalX [][]float64, ys []int) {
	zs := make([]float64, len(evalX))
	for i, x := range evalX {
		zs[i] = dot(model.Weights[0], x) + model.Bias[0]
	}
	model.Calibration = fitPlatt(zs, ys)

	var correct int
	logLoss := 0.0
	probs := make([]float64, len(evalX))
	for i, z := range zs {
		p := applyPlatt(model.Calibration, z)
		probs[i] = p
		py := p
		if ys[i] == 0 {
			py = 1 - p
		}
		logLoss -= math.Log(clampProb(py))
		if (p >= 0.5) == (ys[i] == 1) {
			correct++
		}
	}
	model.Metrics = domain.Metrics{
		Accuracy:    float64(correct) / float64(len(evalX)),
		LogLoss:     logLoss / float64(len(evalX)),
		EvalSamples: len(evalX),
		Reliability: reliabilityBins(probs, ys, t.cfg.CalibrationBins),
	}
}

func regressionMetrics(model domain.TrainedModel, evalX [][]float64, ys []float64) domain.Metrics {
	mae := 0.0
	for i, x := range evalX {
		mae += math.Abs(dot(model.Weights[0], x) + model.Bias[0] - ys[i])
	}
	return domain.Metrics{
		MAE:         mae / float64(len(evalX)),
		EvalSamples: len(evalX),
	}
}

// buildDataset extrae features y etiquetas del mercado. Las muestras sin la
// estadística necesaria (corners o tiros no publicados) se descartan solo
// para ese mercado.
func buildDataset(market domain.Market, samples []features.Sample) (xs [][]float64, yClass []int, yValue []float64) {
	for _, s := range samples {
		cls, val, ok := label(market, s.Match)
		if !ok {
			continue
		}
		xs = append(xs, s.Vector.Values[:])
		yClass = append(yClass, cls)
		yValue = append(yValue, val)
	}
	return xs, yClass, yValue
}

// label devuelve la etiqueta del partido para el mercado dado.
func label(market domain.Market, m domain.MatchRecord) (cls int, val float64, ok bool) {
	switch market {
	case domain.MarketResult:
		switch m.Result() {
		case domain.ResultHome:
			return 0, 0, true
		case domain.ResultDraw:
			return 1, 0, true
		default:
			return 2, 0, true
		}
	case domain.MarketOver25:
		return boolLabel(m.TotalGoals() > 2), 0, true
	case domain.MarketBTTS:
		return boolLabel(m.BothTeamsScored()), 0, true
	case domain.MarketOver95Corners:
		total, has := m.TotalCorners()
		return boolLabel(total > 9), 0, has
	case domain.MarketOver105Corners:
		total, has := m.TotalCorners()
		return boolLabel(total > 10), 0, has
	case domain.MarketTotalCorners:
		total, has := m.TotalCorners()
		return 0, float64(total), has
	case domain.MarketTotalShots:
		total, has := m.TotalShots()
		return 0, float64(total), has
	case domain.MarketTotalSOT:
		total, has := m.TotalShotsOnTarget()
		return 0, float64(total), has
	}
	return 0, 0, false
}

func boolLabel(b bool) int {
	if b {
		return 1
	}
	return 0
}

func kindFor(market domain.Market) domain.ModelKind {
	switch market {
	case domain.MarketResult:
		return domain.KindSoftmax
	case domain.MarketOver25, domain.MarketBTTS, domain.MarketOver95Corners, domain.MarketOver105Corners:
		return domain.KindLogistic
	default:
		return domain.KindRegression
	}
}

func argmax(probs []float64) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}

// ResultProbs aplica el modelo 1X2 calibrado a un vector de features.
func ResultProbs(m domain.TrainedModel, fv domain.FeatureVector) (domain.Prob3, error) {
	if err := fv.CheckSchema(m.Schema); err != nil {
		return domain.Prob3{}, err
	}
	probs := applyTemperature(m.Calibration, rawLogits(m, fv.Values[:]))
	return domain.Prob3{Home: probs[0], Draw: probs[1], Away: probs[2]}, nil
}

// YesProb aplica un clasificador binario calibrado y devuelve P(sí).
func YesProb(m domain.TrainedModel, fv domain.FeatureVector) (float64, error) {
	if err := fv.CheckSchema(m.Schema); err != nil {
		return 0, err
	}
	z := rawLogits(m, fv.Values[:])[0]
	return applyPlatt(m.Calibration, z), nil
}

// PointEstimate aplica un regresor y devuelve el punto estimado, truncado en
// cero: un total de corners negativo no es interpretable.
func PointEstimate(m domain.TrainedModel, fv domain.FeatureVector) (float64, error) {
	if err := fv.CheckSchema(m.Schema); err != nil {
		return 0, err
	}
	v := rawLogits(m, fv.Values[:])[0]
	if v < 0 {
		v = 0
	}
	return v, nil
}
