package domain

import "errors"

// Errores centinela de la taxonomía del engine. Los fallos por partido o por
// mercado se acumulan en los reports; nunca abortan el batch completo.
var (
	// ErrInsufficientData: historia insuficiente para un grupo de features o
	// para el fit del modelo de goles. Se degrada a defaults, nunca es fatal.
	ErrInsufficientData = errors.New("historia insuficiente")

	// ErrSchemaMismatch: el schema del vector no coincide con el del modelo.
	// La predicción de ese mercado se omite y se reporta.
	ErrSchemaMismatch = errors.New("schema de features incompatible")

	// ErrNoQuotes: el feed no devolvió cuotas para el partido.
	ErrNoQuotes = errors.New("sin cuotas disponibles")
)
