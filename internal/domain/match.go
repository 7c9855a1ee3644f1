package domain

import "time"

// Result es el resultado 1X2 de un partido desde la perspectiva del local.
type Result string

const (
	ResultHome Result = "H"
	ResultDraw Result = "D"
	ResultAway Result = "A"
)

// MatchStats son las estadísticas detalladas de un partido terminado.
// Los campos son punteros porque no todos los proveedores las publican.
type MatchStats struct {
	CornersHome       *int
	CornersAway       *int
	ShotsHome         *int
	ShotsAway         *int
	ShotsOnTargetHome *int
	ShotsOnTargetAway *int
	XGHome            *float64
	XGAway            *float64
	PossessionHome    *float64
	PossessionAway    *float64
	YellowCardsHome   *int
	YellowCardsAway   *int
	RedCardsHome      *int
	RedCardsAway      *int
}

// MatchRecord es un partido histórico terminado. Es un hecho inmutable:
// el core solo lo lee, nunca lo modifica.
type MatchRecord struct {
	ID          string
	Competition string
	Season      int
	HomeTeam    string
	AwayTeam    string
	Date        time.Time
	HomeGoals   int
	AwayGoals   int
	Stats       MatchStats
}

// Result devuelve el resultado 1X2 del partido.
func (m MatchRecord) Result() Result {
	switch {
	case m.HomeGoals > m.AwayGoals:
		return ResultHome
	case m.HomeGoals < m.AwayGoals:
		return ResultAway
	default:
		return ResultDraw
	}
}

// TotalGoals devuelve el total de goles del partido.
func (m MatchRecord) TotalGoals() int {
	return m.HomeGoals + m.AwayGoals
}

// BothTeamsScored indica si ambos equipos anotaron.
func (m MatchRecord) BothTeamsScored() bool {
	return m.HomeGoals > 0 && m.AwayGoals > 0
}

// GoalsFor devuelve los goles anotados por teamID en este partido.
func (m MatchRecord) GoalsFor(teamID string) int {
	if m.HomeTeam == teamID {
		return m.HomeGoals
	}
	return m.AwayGoals
}

// GoalsAgainst devuelve los goles recibidos por teamID en este partido.
func (m MatchRecord) GoalsAgainst(teamID string) int {
	if m.HomeTeam == teamID {
		return m.AwayGoals
	}
	return m.HomeGoals
}

// PointsFor devuelve los puntos (3/1/0) que teamID obtuvo en este partido.
func (m MatchRecord) PointsFor(teamID string) int {
	gf := m.GoalsFor(teamID)
	ga := m.GoalsAgainst(teamID)
	switch {
	case gf > ga:
		return 3
	case gf < ga:
		return 0
	default:
		return 1
	}
}

// XGFor devuelve el xG de teamID, o su promedio de goles como proxy si falta.
func (m MatchRecord) XGFor(teamID string) (float64, bool) {
	var xg *float64
	if m.HomeTeam == teamID {
		xg = m.Stats.XGHome
	} else {
		xg = m.Stats.XGAway
	}
	if xg == nil {
		return 0, false
	}
	return *xg, true
}

// TotalCorners devuelve el total de corners y si ambos lados tienen dato.
func (m MatchRecord) TotalCorners() (int, bool) {
	if m.Stats.CornersHome == nil || m.Stats.CornersAway == nil {
		return 0, false
	}
	return *m.Stats.CornersHome + *m.Stats.CornersAway, true
}

// TotalShots devuelve el total de tiros y si ambos lados tienen dato.
func (m MatchRecord) TotalShots() (int, bool) {
	if m.Stats.ShotsHome == nil || m.Stats.ShotsAway == nil {
		return 0, false
	}
	return *m.Stats.ShotsHome + *m.Stats.ShotsAway, true
}

// TotalShotsOnTarget devuelve el total de tiros a puerta y si hay dato.
func (m MatchRecord) TotalShotsOnTarget() (int, bool) {
	if m.Stats.ShotsOnTargetHome == nil || m.Stats.ShotsOnTargetAway == nil {
		return 0, false
	}
	return *m.Stats.ShotsOnTargetHome + *m.Stats.ShotsOnTargetAway, true
}

// MatchContext identifica el partido a predecir: par de equipos y fecha de corte.
// La fecha del partido ES la fecha de corte para el cálculo de features.
type MatchContext struct {
	MatchID     string
	Competition string
	Season      int
	HomeTeam    string
	AwayTeam    string
	KickOff     time.Time
}
