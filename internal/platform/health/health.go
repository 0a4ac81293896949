// Pacote health expõe as sondas de liveness e readiness da API e do worker.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Verificacao é uma dependência extra checada na readiness, na ordem em que foi registrada.
type Verificacao struct {
	Nome string
	Fn   func(ctx context.Context) error
}

type Checker struct {
	verificacoes []Verificacao
	timeout      time.Duration
}

// NewChecker checa Postgres antes de Redis; dependências nulas são ignoradas.
func NewChecker(db *sql.DB, rdb *redis.Client, extras ...Verificacao) *Checker {
	c := &Checker{timeout: 2 * time.Second}
	if db != nil {
		c.verificacoes = append(c.verificacoes, Verificacao{Nome: "database", Fn: db.PingContext})
	}
	if rdb != nil {
		c.verificacoes = append(c.verificacoes, Verificacao{Nome: "redis", Fn: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	c.verificacoes = append(c.verificacoes, extras...)
	return c
}

func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		defer cancel()

		status := make(map[string]string, len(c.verificacoes))
		code := http.StatusOK
		for _, v := range c.verificacoes {
			if code != http.StatusOK {
				status[v.Nome] = "skipped"
				continue
			}
			if err := v.Fn(ctx); err != nil {
				status[v.Nome] = "unavailable"
				code = http.StatusServiceUnavailable
				continue
			}
			status[v.Nome] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
