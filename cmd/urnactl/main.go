// urnactl é a ferramenta da secretaria: migrações, códigos de votação, status e apuração.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/marcelojr/eleicao-escolar/internal/app/voting"
	"github.com/marcelojr/eleicao-escolar/internal/cli"
	"github.com/marcelojr/eleicao-escolar/internal/platform/clock"
	"github.com/marcelojr/eleicao-escolar/internal/platform/config"
	"github.com/marcelojr/eleicao-escolar/internal/platform/logger"
	"github.com/marcelojr/eleicao-escolar/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/eleicao-escolar/internal/platform/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(carregar)
	if err := root.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "erro:", err)
		stop()
		os.Exit(1)
	}
}

func carregar(ctx context.Context) (*cli.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN(), postgresstorage.Opcoes{
		MaxConexoes:   cfg.PostgresMaxConexoes,
		ConsultaLenta: cfg.ConsultaLenta(),
		Logger:        logger.L(),
	})
	if err != nil {
		return nil, err
	}
	relogio := clock.NewSystemClock()
	servico := voting.NewService(voting.Dependencias{
		Eleicoes: postgresstorage.NewEleicaoRepository(db),
		Cedulas:  postgresstorage.NewCargoRepository(db),
		Codigos:  postgresstorage.NewCodigoRepository(db),
		Votos:    postgresstorage.NewVotoRepository(db),
		Clock:    relogio,
	}, voting.ComLogger(logger.L()))

	return &cli.App{
		Servico:  servico,
		Migrar:   func() error { return migrations.Run(db) },
		Desfazer: func() error { return migrations.RollbackLast(db) },
		Clock:    relogio,
		Fechar:   func() { _ = postgresstorage.Close(db) },
	}, nil
}
