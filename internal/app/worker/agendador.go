package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const timeoutSincronizacao = 30 * time.Second

type SincronizadorStatus interface {
	SincronizarStatus(ctx context.Context) (int, error)
}

// Agendador roda SincronizarStatus na expressão cron configurada (AGENDA_STATUS).
type Agendador struct {
	cron   *cron.Cron
	alvo   SincronizadorStatus
	logger *slog.Logger
}

func NewAgendador(alvo SincronizadorStatus, expressao string, logger *slog.Logger) (*Agendador, error) {
	l := cronLogger{logger}
	a := &Agendador{
		cron:   cron.New(cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l))),
		alvo:   alvo,
		logger: logger,
	}
	if _, err := a.cron.AddFunc(expressao, a.executar); err != nil {
		return nil, fmt.Errorf("worker: agenda %q: %w", expressao, err)
	}
	return a, nil
}

// Start sincroniza uma vez antes de ligar o cron, para não esperar o primeiro disparo.
func (a *Agendador) Start() {
	a.executar()
	a.cron.Start()
}

// Stop devolve um contexto que termina quando a execução em andamento acabar.
func (a *Agendador) Stop() context.Context {
	return a.cron.Stop()
}

func (a *Agendador) executar() {
	ctx, cancel := context.WithTimeout(context.Background(), timeoutSincronizacao)
	defer cancel()

	alteradas, err := a.alvo.SincronizarStatus(ctx)
	if err != nil {
		a.logger.Error("falha ao sincronizar status das eleicoes", "err", err, "alteradas", alteradas)
		return
	}
	if alteradas > 0 {
		a.logger.Info("status das eleicoes sincronizado", "alteradas", alteradas)
	}
}

type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
