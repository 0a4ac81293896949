package antifraude

import (
	"context"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// Noop é usado quando LOGIN_RATE_LIMIT_ENABLED=false.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Validar(context.Context, string) error {
	return nil
}

var _ domain.Antifraude = Noop{}
