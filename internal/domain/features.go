package domain

import (
	"fmt"
	"time"
)

// SchemaVersion identifica el schema de features vigente. Un TrainedModel solo
// se aplica a vectores cuyo schema coincide con el de su entrenamiento.
const SchemaVersion = "v2.33"

// NumFeatures es el tamaño fijo del vector de features.
const NumFeatures = 33

// Índices del schema v2.33. El orden es parte del contrato: los modelos
// entrenados dependen de él, cambiarlo exige subir SchemaVersion.
const (
	// Forma reciente (últimos 5 y últimos 3 partidos)
	FeatFormPointsHome = iota // puntos sumados, últimos 5
	FeatFormPointsAway
	FeatFormPoints3Home // puntos sumados, últimos 3
	FeatFormPoints3Away
	FeatFormGoalsHome // promedio de goles a favor, últimos 5
	FeatFormGoalsAway
	FeatFormXGHome // promedio de xG, últimos 5
	FeatFormXGAway
	FeatFormTrendHome // puntos últimos 3 − puntos 3 anteriores
	FeatFormTrendAway
	FeatGoalDiff5Home // GF − GA, últimos 5
	FeatGoalDiff5Away

	// Splits por venue (últimos 10 en ese venue)
	FeatVenueWinRateHome
	FeatVenueGoalsForHome
	FeatVenueGoalsAgainstHome
	FeatVenueCleanSheetHome
	FeatVenueWinRateAway
	FeatVenueGoalsForAway
	FeatVenueGoalsAgainstAway
	FeatVenueCleanSheetAway

	// Head-to-head (hasta 10 enfrentamientos, mínimo 3)
	FeatH2HHomeWinRate
	FeatH2HAvgGoals
	FeatH2HBTTSRate
	FeatH2HOver25Rate

	// Temporada por venue
	FeatSeasonPPGHome
	FeatSeasonBTTSHome
	FeatSeasonOver25Home
	FeatSeasonPPGAway
	FeatSeasonBTTSAway
	FeatSeasonOver25Away

	// Derivadas y combinadas
	FeatFormGap       // form_points_home − form_points_away
	FeatStrengthIndex // combinación ponderada de forma y H2H
	FeatBothHighBTTS  // 1 si ambos equipos superan 0.5 de BTTS en temporada
)

// FeatureNames son los nombres del schema v2.33 en orden de índice.
var FeatureNames = [NumFeatures]string{
	"form_points_home", "form_points_away",
	"form_points3_home", "form_points3_away",
	"form_goals_home", "form_goals_away",
	"form_xg_home", "form_xg_away",
	"form_trend_home", "form_trend_away",
	"goal_diff_5_home", "goal_diff_5_away",
	"venue_win_rate_home", "venue_goals_for_home",
	"venue_goals_against_home", "venue_clean_sheet_home",
	"venue_win_rate_away", "venue_goals_for_away",
	"venue_goals_against_away", "venue_clean_sheet_away",
	"h2h_home_win_rate", "h2h_avg_goals", "h2h_btts_rate", "h2h_over25_rate",
	"season_ppg_home", "season_btts_home", "season_over25_home",
	"season_ppg_away", "season_btts_away", "season_over25_away",
	"form_gap", "strength_index", "both_high_btts",
}

// FeatureGroup identifica un grupo de features para la política de defaults.
type FeatureGroup string

const (
	GroupForm   FeatureGroup = "form"
	GroupVenue  FeatureGroup = "venue"
	GroupH2H    FeatureGroup = "h2h"
	GroupSeason FeatureGroup = "season"
)

// FeatureVector es el vector de 33 features de un partido, calculado con
// partidos estrictamente anteriores a Cutoff. Inmutable tras su creación.
//
// LowConfidence es metadata, no una feature: indica que al menos un grupo se
// rellenó con defaults de liga por falta de historia. El ValueBetEngine puede
// usarla para suprimir recomendaciones.
type FeatureVector struct {
	Schema        string
	Cutoff        time.Time
	Values        [NumFeatures]float64
	LowConfidence bool
	Defaulted     map[FeatureGroup]bool
}

// CheckSchema devuelve ErrSchemaMismatch si el vector no es del schema dado.
func (fv FeatureVector) CheckSchema(trained string) error {
	if fv.Schema != trained {
		return fmt.Errorf("%w: vector %s, modelo %s", ErrSchemaMismatch, fv.Schema, trained)
	}
	return nil
}

// At devuelve el valor de la feature con el nombre dado.
// Existe para tests y debugging; el camino caliente usa índices.
func (fv FeatureVector) At(name string) (float64, bool) {
	for i, n := range FeatureNames {
		if n == name {
			return fv.Values[i], true
		}
	}
	return 0, false
}
