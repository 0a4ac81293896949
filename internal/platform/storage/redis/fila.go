package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// Fila transporta as cédulas já confirmadas no Postgres até o worker que alimenta os contadores.
// Payloads que não decodificam vão para <key>:invalidas em vez de travar o consumo.
type Fila struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewFila(client *redis.Client, key string) *Fila {
	return &Fila{
		client:  client,
		key:     key,
		timeout: 5 * time.Second,
	}
}

func (f *Fila) PublicarCedula(ctx context.Context, cedula domain.CedulaRegistrada) error {
	payload, err := json.Marshal(cedula)
	if err != nil {
		return fmt.Errorf("redis fila: serializar cedula: %w", err)
	}
	if err := f.client.LPush(ctx, f.key, payload).Err(); err != nil {
		return fmt.Errorf("redis fila: enfileirar cedula: %w", err)
	}
	return nil
}

func (f *Fila) ConsumirCedulas(ctx context.Context, handler func(context.Context, domain.CedulaRegistrada) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := f.client.BRPop(ctx, f.timeout, f.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("redis fila: consumir cedula: %w", err)
		}

		if len(res) != 2 {
			continue
		}

		var cedula domain.CedulaRegistrada
		if err := json.Unmarshal([]byte(res[1]), &cedula); err != nil {
			if errDLQ := f.client.LPush(ctx, f.chaveInvalidas(), res[1]).Err(); errDLQ != nil {
				return fmt.Errorf("redis fila: mover payload invalido: %w", errDLQ)
			}
			continue
		}

		if err := handler(ctx, cedula); err != nil {
			return err
		}
	}
}

// Reenfileirar devolve a cédula para a fila depois de uma falha transitória no processamento.
func (f *Fila) Reenfileirar(ctx context.Context, cedula domain.CedulaRegistrada) error {
	return f.PublicarCedula(ctx, cedula)
}

// MoverParaInvalidas guarda a cédula que não pode ser aplicada aos contadores para inspeção manual.
func (f *Fila) MoverParaInvalidas(ctx context.Context, cedula domain.CedulaRegistrada) error {
	payload, err := json.Marshal(cedula)
	if err != nil {
		return fmt.Errorf("redis fila: serializar cedula: %w", err)
	}
	if err := f.client.LPush(ctx, f.chaveInvalidas(), payload).Err(); err != nil {
		return fmt.Errorf("redis fila: mover cedula para invalidas: %w", err)
	}
	return nil
}

func (f *Fila) chaveInvalidas() string {
	return f.key + ":invalidas"
}

// Pendentes devolve o tamanho atual da fila; usado pelo health check do worker.
func (f *Fila) Pendentes(ctx context.Context) (int64, error) {
	n, err := f.client.LLen(ctx, f.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis fila: tamanho: %w", err)
	}
	return n, nil
}

var _ domain.Fila = (*Fila)(nil)
