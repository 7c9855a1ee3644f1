package ports

import (
	"context"

	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

// BundleStore persiste los artefactos de entrenamiento versionados.
type BundleStore interface {
	// SaveBundle persiste el bundle completo bajo su versión.
	SaveBundle(ctx context.Context, bundle *domain.ModelBundle) error

	// LoadBundle carga el bundle con la versión dada.
	LoadBundle(ctx context.Context, version string) (*domain.ModelBundle, error)

	// LatestBundle carga el bundle más reciente por fecha de creación.
	LatestBundle(ctx context.Context) (*domain.ModelBundle, error)
}
