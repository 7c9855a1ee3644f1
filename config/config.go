package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del motor de predicción.
type Config struct {
	Features Features `yaml:"features"`
	Goals    Goals    `yaml:"goals"`
	Models   Models   `yaml:"models"`
	Ensemble Ensemble `yaml:"ensemble"`
	Value    Value    `yaml:"value"`
	Pipeline Pipeline `yaml:"pipeline"`
	Odds     Odds     `yaml:"odds"`
	Storage  Storage  `yaml:"storage"`
	Log      Log      `yaml:"log"`
}

// Features controla la extracción de features.
type Features struct {
	FormWindow        int `yaml:"form_window"`          // partidos de forma general
	FormShortWindow   int `yaml:"form_short_window"`    // partidos de forma reciente
	VenueWindow       int `yaml:"venue_window"`         // partidos como local/visitante
	H2HWindow         int `yaml:"h2h_window"`           // enfrentamientos directos
	MinHistoryPerSide int `yaml:"min_history_per_side"` // por debajo, el vector se marca low_confidence
}

// Goals controla el ajuste del modelo de goles.
type Goals struct {
	DecayHalfLifeDays float64 `yaml:"decay_half_life_days"` // 0 = sin decay temporal
	MaxIterations     int     `yaml:"max_iterations"`
	Tolerance         float64 `yaml:"tolerance"`
	LearningRate      float64 `yaml:"learning_rate"`
	MaxGoals          int     `yaml:"max_goals"` // dimensión de la matriz de marcadores
	MinTeamMatches    int     `yaml:"min_team_matches"`
}

// Models controla el entrenamiento y la calibración del banco de modelos.
type Models struct {
	MinEvalSamples  int     `yaml:"min_eval_samples"`
	EvalFraction    float64 `yaml:"eval_fraction"` // cola temporal reservada para evaluación
	CalibrationBins int     `yaml:"calibration_bins"`
	Epochs          int     `yaml:"epochs"`
	LearningRate    float64 `yaml:"learning_rate"`
	L2              float64 `yaml:"l2"`
}

// Ensemble controla la mezcla entre banco de modelos y modelo de goles.
type Ensemble struct {
	BlendWeight float64 `yaml:"blend_weight"` // peso del banco; 1-w para el modelo de goles
}

// Value controla la detección de apuestas de valor y el staking.
type Value struct {
	MinEdge           float64 `yaml:"min_edge"`
	Bankroll          float64 `yaml:"bankroll"`
	KellyMultiplier   float64 `yaml:"kelly_multiplier"`
	MaxStakeFraction  float64 `yaml:"max_stake_fraction"`
	HighMarginPct     float64 `yaml:"high_margin_pct"` // por encima, el partido se marca con cautela
	SuppressLowConf   bool    `yaml:"suppress_low_confidence"`
	MinOdds           float64 `yaml:"min_odds"`
	MaxOdds           float64 `yaml:"max_odds"`
}

// Pipeline controla la orquestación del escaneo.
type Pipeline struct {
	Workers        int `yaml:"workers"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Odds contiene la configuración del feed de cuotas.
type Odds struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Sport          string  `yaml:"sport"` // sport key del proveedor, ej. "soccer_epl"
	Regions        string  `yaml:"regions"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
}

// Storage controla dónde se persisten los datos.
type Storage struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// Log controla el formato y nivel de logging.
type Log struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PipelineTimeout devuelve el timeout por partido como time.Duration.
func (c *Config) PipelineTimeout() time.Duration {
	return time.Duration(c.Pipeline.TimeoutSeconds) * time.Second
}

// OddsTimeout devuelve el timeout del cliente HTTP del feed.
func (c *Config) OddsTimeout() time.Duration {
	return time.Duration(c.Odds.TimeoutSeconds) * time.Second
}

// Validate rechaza configuraciones incoherentes. Se llama en el arranque:
// una config inválida es fatal, nunca se corrige en silencio.
func (c *Config) Validate() error {
	if c.Value.MinEdge < 0 || c.Value.MinEdge >= 1 {
		return fmt.Errorf("config: min_edge %.3f fuera de [0,1)", c.Value.MinEdge)
	}
	if c.Value.KellyMultiplier <= 0 || c.Value.KellyMultiplier > 1 {
		return fmt.Errorf("config: kelly_multiplier %.3f fuera de (0,1]", c.Value.KellyMultiplier)
	}
	if c.Value.MaxStakeFraction <= 0 || c.Value.MaxStakeFraction > 1 {
		return fmt.Errorf("config: max_stake_fraction %.3f fuera de (0,1]", c.Value.MaxStakeFraction)
	}
	if c.Value.Bankroll <= 0 {
		return fmt.Errorf("config: bankroll %.2f debe ser positivo", c.Value.Bankroll)
	}
	if c.Value.MinOdds >= c.Value.MaxOdds {
		return fmt.Errorf("config: min_odds %.2f >= max_odds %.2f", c.Value.MinOdds, c.Value.MaxOdds)
	}
	if c.Ensemble.BlendWeight < 0 || c.Ensemble.BlendWeight > 1 {
		return fmt.Errorf("config: blend_weight %.3f fuera de [0,1]", c.Ensemble.BlendWeight)
	}
	if c.Goals.DecayHalfLifeDays < 0 {
		return fmt.Errorf("config: decay_half_life_days %.1f negativo (0 desactiva el decay)", c.Goals.DecayHalfLifeDays)
	}
	if c.Models.EvalFraction <= 0 || c.Models.EvalFraction >= 1 {
		return fmt.Errorf("config: eval_fraction %.3f fuera de (0,1)", c.Models.EvalFraction)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ODDS_API_KEY"); v != "" {
		cfg.Odds.APIKey = v
	}
	if v := os.Getenv("ODDS_BASE_URL"); v != "" {
		cfg.Odds.BaseURL = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Features.FormWindow <= 0 {
		cfg.Features.FormWindow = 5
	}
	if cfg.Features.FormShortWindow <= 0 {
		cfg.Features.FormShortWindow = 3
	}
	if cfg.Features.VenueWindow <= 0 {
		cfg.Features.VenueWindow = 10
	}
	if cfg.Features.H2HWindow <= 0 {
		cfg.Features.H2HWindow = 10
	}
	if cfg.Features.MinHistoryPerSide <= 0 {
		cfg.Features.MinHistoryPerSide = 3
	}
	if cfg.Goals.MaxIterations <= 0 {
		cfg.Goals.MaxIterations = 2000
	}
	if cfg.Goals.Tolerance <= 0 {
		cfg.Goals.Tolerance = 1e-6
	}
	if cfg.Goals.LearningRate <= 0 {
		cfg.Goals.LearningRate = 0.01
	}
	if cfg.Goals.MaxGoals <= 0 {
		cfg.Goals.MaxGoals = 14
	}
	if cfg.Goals.MinTeamMatches <= 0 {
		cfg.Goals.MinTeamMatches = 5
	}
	if cfg.Models.MinEvalSamples <= 0 {
		cfg.Models.MinEvalSamples = 50
	}
	if cfg.Models.EvalFraction <= 0 {
		cfg.Models.EvalFraction = 0.2
	}
	if cfg.Models.CalibrationBins <= 0 {
		cfg.Models.CalibrationBins = 10
	}
	if cfg.Models.Epochs <= 0 {
		cfg.Models.Epochs = 300
	}
	if cfg.Models.LearningRate <= 0 {
		cfg.Models.LearningRate = 0.05
	}
	if cfg.Models.L2 <= 0 {
		cfg.Models.L2 = 0.001
	}
	if cfg.Ensemble.BlendWeight == 0 {
		cfg.Ensemble.BlendWeight = 0.5
	}
	if cfg.Value.MinEdge == 0 {
		cfg.Value.MinEdge = 0.03
	}
	if cfg.Value.Bankroll <= 0 {
		cfg.Value.Bankroll = 1000
	}
	if cfg.Value.KellyMultiplier <= 0 {
		cfg.Value.KellyMultiplier = 0.25
	}
	if cfg.Value.MaxStakeFraction <= 0 {
		cfg.Value.MaxStakeFraction = 0.05
	}
	if cfg.Value.HighMarginPct <= 0 {
		cfg.Value.HighMarginPct = 8.0
	}
	if cfg.Value.MinOdds <= 0 {
		cfg.Value.MinOdds = 1.10
	}
	if cfg.Value.MaxOdds <= 0 {
		cfg.Value.MaxOdds = 15.0
	}
	if cfg.Pipeline.Workers <= 0 {
		cfg.Pipeline.Workers = 4
	}
	if cfg.Pipeline.TimeoutSeconds <= 0 {
		cfg.Pipeline.TimeoutSeconds = 20
	}
	if cfg.Odds.BaseURL == "" {
		cfg.Odds.BaseURL = "https://api.the-odds-api.com"
	}
	if cfg.Odds.Sport == "" {
		cfg.Odds.Sport = "soccer_epl"
	}
	if cfg.Odds.Regions == "" {
		cfg.Odds.Regions = "eu"
	}
	if cfg.Odds.TimeoutSeconds <= 0 {
		cfg.Odds.TimeoutSeconds = 10
	}
	if cfg.Odds.RatePerSecond <= 0 {
		cfg.Odds.RatePerSecond = 2
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "matches.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
