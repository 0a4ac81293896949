// Pacote cache guarda em memória a estrutura das cédulas, que não muda durante a eleição.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto"
	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	ristrettostore "github.com/eko/gocache/store/ristretto/v4"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// CedulaCache decora um CarregadorCedula com leitura via cache. O status da eleição nunca passa por aqui.
type CedulaCache struct {
	origem  domain.CarregadorCedula
	local   *ristretto.Cache
	marshal *marshaler.Marshaler
	ttl     time.Duration
	logger  *slog.Logger
}

func NewCedulaCache(origem domain.CarregadorCedula, ttl time.Duration, logger *slog.Logger) (*CedulaCache, error) {
	local, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cache cedula: criar ristretto: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	manager := gocache.New[any](ristrettostore.NewRistretto(local))
	return &CedulaCache{
		origem:  origem,
		local:   local,
		marshal: marshaler.New(manager),
		ttl:     ttl,
		logger:  logger,
	}, nil
}

func (c *CedulaCache) CarregarCedula(ctx context.Context, eleicaoID domain.EleicaoID) ([]domain.Cargo, error) {
	if c.ttl <= 0 {
		return c.origem.CarregarCedula(ctx, eleicaoID)
	}

	key := chave(eleicaoID)
	if cached, err := c.marshal.Get(ctx, key, new([]domain.Cargo)); err == nil {
		return *cached.(*[]domain.Cargo), nil
	}

	cargos, err := c.origem.CarregarCedula(ctx, eleicaoID)
	if err != nil {
		return nil, err
	}

	// Cédula vazia não é guardada: a eleição pode estar sendo montada ainda.
	if len(cargos) > 0 {
		if err := c.marshal.Set(ctx, key, cargos, store.WithExpiration(c.ttl), store.WithCost(1)); err != nil {
			c.logger.Warn("cache cedula: falha ao gravar", "eleicao_id", eleicaoID, "error", err)
		}
	}
	return cargos, nil
}

func (c *CedulaCache) Invalidar(ctx context.Context, eleicaoID domain.EleicaoID) error {
	if err := c.marshal.Delete(ctx, chave(eleicaoID)); err != nil {
		return fmt.Errorf("cache cedula: invalidar: %w", err)
	}
	return nil
}

func (c *CedulaCache) Close() {
	c.local.Close()
}

func chave(eleicaoID domain.EleicaoID) string {
	return "cedula:" + string(eleicaoID)
}

var _ domain.CarregadorCedula = (*CedulaCache)(nil)
