package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// Contador mantém as parciais ao vivo. Os números são derivados do Postgres e podem ser reconstruídos.
type Contador struct {
	client *redis.Client
	prefix string
}

func NewContador(client *redis.Client, prefix string) *Contador {
	return &Contador{
		client: client,
		prefix: prefix,
	}
}

func (c *Contador) Incrementar(ctx context.Context, chave string, delta int64) (int64, error) {
	val, err := c.client.IncrBy(ctx, c.key(chave), delta).Result()
	if err != nil {
		return 0, fmt.Errorf("redis contador: incrementar %s: %w", chave, err)
	}
	return val, nil
}

// IncrementarLote garante que a cédula e os votos dela apareçam juntos nas parciais.
func (c *Contador) IncrementarLote(ctx context.Context, deltas map[string]int64) error {
	if len(deltas) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for chave, delta := range deltas {
			pipe.IncrBy(ctx, c.key(chave), delta)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis contador: incrementar lote: %w", err)
	}
	return nil
}

func (c *Contador) Obter(ctx context.Context, chave string) (int64, error) {
	val, err := c.client.Get(ctx, c.key(chave)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis contador: obter %s: %w", chave, err)
	}
	return val, nil
}

func (c *Contador) ObterTodos(ctx context.Context, chaves []string) (map[string]int64, error) {
	if len(chaves) == 0 {
		return map[string]int64{}, nil
	}

	keys := make([]string, len(chaves))
	for i, ch := range chaves {
		keys[i] = c.key(ch)
	}

	valores, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis contador: mget: %w", err)
	}

	resultado := make(map[string]int64, len(chaves))
	for i, raw := range valores {
		switch v := raw.(type) {
		case nil:
			resultado[chaves[i]] = 0
		case string:
			num, convErr := strconv.ParseInt(v, 10, 64)
			if convErr != nil {
				return nil, fmt.Errorf("redis contador: valor invalido para %s: %w", chaves[i], convErr)
			}
			resultado[chaves[i]] = num
		case int64:
			resultado[chaves[i]] = v
		default:
			return nil, fmt.Errorf("redis contador: tipo inesperado %T", raw)
		}
	}

	return resultado, nil
}

func (c *Contador) key(chave string) string {
	if c.prefix == "" {
		return chave
	}
	return c.prefix + ":" + chave
}

var _ domain.Contador = (*Contador)(nil)
