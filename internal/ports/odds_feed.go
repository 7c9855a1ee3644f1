package ports

import (
	"context"

	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// OddsFeed obtiene las cuotas publicadas por las casas para un partido.
type OddsFeed interface {
	// Quotes devuelve todas las cuotas disponibles para el partido dado,
	// en todos los mercados que el feed cubra. Devuelve domain.ErrNoQuotes
	// si la casa no publica nada para ese partido.
	Quotes(ctx context.Context, matchID string) ([]domain.OddsQuote, error)

	// Fixtures devuelve los próximos partidos anunciados por el feed.
	Fixtures(ctx context.Context) ([]domain.MatchContext, error)
}
