package ports

import (
	"context"
	"time"

	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// MatchStore da acceso al histórico de partidos ya disputados.
type MatchStore interface {
	// MatchesBefore devuelve los partidos de un equipo anteriores a la fecha
	// de corte, en orden cronológico ascendente. El corte es estricto: un
	// partido disputado exactamente en cutoff no se incluye.
	MatchesBefore(ctx context.Context, team string, cutoff time.Time, limit int) ([]domain.MatchRecord, error)

	// HeadToHeadBefore devuelve los enfrentamientos directos entre dos equipos
	// anteriores a la fecha de corte, en orden cronológico ascendente.
	HeadToHeadBefore(ctx context.Context, home, away string, cutoff time.Time, limit int) ([]domain.MatchRecord, error)

	// AllMatches devuelve el dataset completo ordenado por fecha ascendente.
	// Se usa para entrenar; el filtrado temporal lo hace quien entrena.
	AllMatches(ctx context.Context) ([]domain.MatchRecord, error)

	// SaveMatches inserta o actualiza partidos por su ID.
	SaveMatches(ctx context.Context, matches []domain.MatchRecord) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
