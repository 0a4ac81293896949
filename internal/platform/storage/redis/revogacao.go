package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// Revogacao guarda o jti das sessões encerradas até o token expirar naturalmente.
type Revogacao struct {
	client *redis.Client
	prefix string
}

func NewRevogacao(client *redis.Client, prefix string) *Revogacao {
	return &Revogacao{client: client, prefix: prefix}
}

func (r *Revogacao) Revogar(ctx context.Context, sessaoID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.key(sessaoID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis revogacao: revogar: %w", err)
	}
	return nil
}

func (r *Revogacao) Revogada(ctx context.Context, sessaoID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(sessaoID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis revogacao: consultar: %w", err)
	}
	return n > 0, nil
}

func (r *Revogacao) key(sessaoID string) string {
	return r.prefix + ":" + sessaoID
}

var _ domain.RevogacaoSessao = (*Revogacao)(nil)
