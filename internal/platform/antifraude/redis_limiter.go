// Pacote antifraude limita tentativas de login com código de votação (rate limit Redis ou modo noop).
package antifraude

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

var ErrLimiteExcedido = errors.New("limite de tentativas atingido")

// LimiteExcedido informa quanto falta para a janela da chave expirar.
type LimiteExcedido struct {
	TentarEm time.Duration
}

func (e *LimiteExcedido) Error() string {
	return fmt.Sprintf("%s, tente novamente em %s", ErrLimiteExcedido, e.TentarEm.Round(time.Second))
}

func (e *LimiteExcedido) Is(target error) bool {
	return target == ErrLimiteExcedido
}

// RedisRateLimiter conta tentativas por chave em janelas fixas. Adivinhar códigos exige muitas
// tentativas, então o limite por origem é a principal defesa contra força bruta.
type RedisRateLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: prefix,
	}
}

func (r *RedisRateLimiter) Validar(ctx context.Context, chave string) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		return nil
	}

	key := r.buildKey(chave)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("antifraude: falha ao incrementar chave: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return fmt.Errorf("antifraude: falha ao definir expiracao: %w", err)
		}
	}

	if int(count) <= r.limit {
		return nil
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		ttl = r.window
	}
	return &LimiteExcedido{TentarEm: ttl}
}

func (r *RedisRateLimiter) buildKey(chave string) string {
	// O IP não fica exposto em texto puro no Redis.
	hash := sha1.Sum([]byte(chave))
	return fmt.Sprintf("%s:%s", r.keyPrefix, hex.EncodeToString(hash[:]))
}

var _ domain.Antifraude = (*RedisRateLimiter)(nil)
