package features

import "github.com/rodolfo150194/analyze-matches-football/internal/domain"

// defaults.go — política de defaults cuando falta historia.
//
// Un equipo recién ascendido o un cruce sin precedentes no tiene partidos
// suficientes para calcular un grupo de features. En ese caso el grupo entero
// se rellena con promedios de liga (grandes ligas europeas, temporadas
// 2019-2024) y el vector se marca low confidence. Nunca se rellenan ceros:
// un cero en form_points significa "perdió los últimos 5", no "no hay datos".

// formDefault son los valores neutros del grupo de forma para un lado.
type formDefault struct {
	points   float64 // suma de puntos en 5 partidos
	points3  float64 // suma de puntos en 3 partidos
	goals    float64 // promedio de goles a favor
	xg       float64 // promedio de xG
	trend    float64
	goalDiff float64
}

// venueDefault son los valores neutros del split por venue.
type venueDefault struct {
	winRate      float64
	goalsFor     float64
	goalsAgainst float64
	cleanSheet   float64
}

// h2hDefault son los valores neutros del head-to-head.
type h2hDefault struct {
	homeWinRate float64
	avgGoals    float64
	bttsRate    float64
	over25Rate  float64
}

// seasonDefault son los valores neutros de temporada para un lado.
type seasonDefault struct {
	ppg        float64
	bttsRate   float64
	over25Rate float64
}

var (
	neutralForm = formDefault{
		points:   6.5,
		points3:  4.0,
		goals:    1.35,
		xg:       1.30,
		trend:    0,
		goalDiff: 0,
	}

	// Los locales ganan más y encajan menos: los defaults de venue son
	// asimétricos a propósito.
	neutralHomeVenue = venueDefault{winRate: 0.45, goalsFor: 1.50, goalsAgainst: 1.15, cleanSheet: 0.30}
	neutralAwayVenue = venueDefault{winRate: 0.28, goalsFor: 1.10, goalsAgainst: 1.50, cleanSheet: 0.22}

	neutralH2H = h2hDefault{homeWinRate: 0.45, avgGoals: 2.60, bttsRate: 0.52, over25Rate: 0.50}

	neutralSeason = seasonDefault{ppg: 1.35, bttsRate: 0.52, over25Rate: 0.50}
)

func applyFormDefault(fv *domain.FeatureVector, home bool) {
	off := 0
	if !home {
		off = 1
	}
	fv.Values[domain.FeatFormPointsHome+off] = neutralForm.points
	fv.Values[domain.FeatFormPoints3Home+off] = neutralForm.points3
	fv.Values[domain.FeatFormGoalsHome+off] = neutralForm.goals
	fv.Values[domain.FeatFormXGHome+off] = neutralForm.xg
	fv.Values[domain.FeatFormTrendHome+off] = neutralForm.trend
	fv.Values[domain.FeatGoalDiff5Home+off] = neutralForm.goalDiff
	fv.Defaulted[domain.GroupForm] = true
}

func applyVenueDefault(fv *domain.FeatureVector, home bool) {
	d, base := neutralHomeVenue, domain.FeatVenueWinRateHome
	if !home {
		d, base = neutralAwayVenue, domain.FeatVenueWinRateAway
	}
	fv.Values[base] = d.winRate
	fv.Values[base+1] = d.goalsFor
	fv.Values[base+2] = d.goalsAgainst
	fv.Values[base+3] = d.cleanSheet
	fv.Defaulted[domain.GroupVenue] = true
}

func applyH2HDefault(fv *domain.FeatureVector) {
	fv.Values[domain.FeatH2HHomeWinRate] = neutralH2H.homeWinRate
	fv.Values[domain.FeatH2HAvgGoals] = neutralH2H.avgGoals
	fv.Values[domain.FeatH2HBTTSRate] = neutralH2H.bttsRate
	fv.Values[domain.FeatH2HOver25Rate] = neutralH2H.over25Rate
	fv.Defaulted[domain.GroupH2H] = true
}

func applySeasonDefault(fv *domain.FeatureVector, home bool) {
	base := domain.FeatSeasonPPGHome
	if !home {
		base = domain.FeatSeasonPPGAway
	}
	fv.Values[base] = neutralSeason.ppg
	fv.Values[base+1] = neutralSeason.bttsRate
	fv.Values[base+2] = neutralSeason.over25Rate
	fv.Defaulted[domain.GroupSeason] = true
}
