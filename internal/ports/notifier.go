package ports

import (
	"context"

	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// Notifier presenta los resultados del escaneo al usuario.
type Notifier interface {
	// Notify muestra el informe de valor ordenado por edge descendente.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, report *domain.ValueReport) error
}
