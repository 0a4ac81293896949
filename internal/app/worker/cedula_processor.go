// Pacote worker contém o processamento assíncrono das cédulas registradas e o agendador de status.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcelojr/eleicao-escolar/internal/app/voting"
	"github.com/marcelojr/eleicao-escolar/internal/domain"
	"github.com/marcelojr/eleicao-escolar/internal/platform/metrics"
)

var ErrCedulaSemEleicao = errors.New("worker: cedula sem eleicao")

// CedulaProcessor mantém os contadores ao vivo a partir das cédulas já gravadas no Postgres.
// Os votos em si nunca passam pelo worker.
type CedulaProcessor struct {
	contador domain.Contador
}

func NewCedulaProcessor(contador domain.Contador) *CedulaProcessor {
	return &CedulaProcessor{contador: contador}
}

func (p *CedulaProcessor) Process(ctx context.Context, cedula domain.CedulaRegistrada) error {
	start := time.Now()

	if cedula.EleicaoID == "" {
		return ErrCedulaSemEleicao
	}

	if p.contador != nil {
		if err := p.contador.IncrementarLote(ctx, voting.DeltasCedula(cedula)); err != nil {
			return fmt.Errorf("worker: incrementar contadores %s: %w", cedula.EleicaoID, err)
		}
	}

	metrics.IncCedulaProcessada()
	metrics.ObserveProcessingDuration(time.Since(start).Seconds())
	return nil
}

// MaxTentativas é quantas vezes uma cédula volta para a fila antes de ir para as inválidas.
const MaxTentativas = 5

// Reentrega é o que o handler precisa da fila para não perder cédulas que falharam.
type Reentrega interface {
	Reenfileirar(ctx context.Context, cedula domain.CedulaRegistrada) error
	MoverParaInvalidas(ctx context.Context, cedula domain.CedulaRegistrada) error
}

// Handler devolve a função entregue a Fila.ConsumirCedulas. Falhas transitórias devolvem a cédula
// para a fila com espera crescente; cédulas sem eleição ou que esgotaram as tentativas vão para as
// inválidas. Só retorna erro quando nem a reentrega funciona.
func (p *CedulaProcessor) Handler(fila Reentrega, espera time.Duration, logger *slog.Logger) func(context.Context, domain.CedulaRegistrada) error {
	return func(ctx context.Context, cedula domain.CedulaRegistrada) error {
		err := p.Process(ctx, cedula)
		if err == nil {
			return nil
		}

		cedula.Tentativas++
		if errors.Is(err, ErrCedulaSemEleicao) || cedula.Tentativas >= MaxTentativas {
			logger.Error("cedula movida para invalidas",
				"eleicao_id", cedula.EleicaoID,
				"codigo_votacao_id", cedula.CodigoVotacaoID,
				"tentativas", cedula.Tentativas,
				"err", err,
			)
			if errMover := fila.MoverParaInvalidas(ctx, cedula); errMover != nil {
				return fmt.Errorf("worker: mover cedula para invalidas: %w", errMover)
			}
			return nil
		}

		logger.Warn("cedula devolvida para a fila", "eleicao_id", cedula.EleicaoID, "tentativas", cedula.Tentativas, "err", err)
		select {
		case <-ctx.Done():
		case <-time.After(espera * time.Duration(cedula.Tentativas)):
		}
		// A cédula já saiu da fila; reenfileirar mesmo com o contexto encerrado.
		if errFila := fila.Reenfileirar(context.WithoutCancel(ctx), cedula); errFila != nil {
			return fmt.Errorf("worker: reenfileirar cedula %s: %w", cedula.CodigoVotacaoID, errFila)
		}
		return nil
	}
}
