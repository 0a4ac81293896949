// Worker assíncrono que consome cédulas registradas, mantém os contadores ao vivo e agenda a troca de status das eleições.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/eleicao-escolar/internal/app/voting"
	"github.com/marcelojr/eleicao-escolar/internal/app/worker"
	"github.com/marcelojr/eleicao-escolar/internal/platform/clock"
	"github.com/marcelojr/eleicao-escolar/internal/platform/config"
	"github.com/marcelojr/eleicao-escolar/internal/platform/health"
	"github.com/marcelojr/eleicao-escolar/internal/platform/logger"
	"github.com/marcelojr/eleicao-escolar/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/eleicao-escolar/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/eleicao-escolar/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN(), postgresstorage.Opcoes{
		MaxConexoes:   cfg.PostgresMaxConexoes,
		ConsultaLenta: cfg.ConsultaLenta(),
		Logger:        logger.L(),
	})
	if err != nil {
		logger.Fatal("falha ao conectar no postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	redisClient, err := redisstorage.NewClient(ctx, redisstorage.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	contador := redisstorage.NewContador(redisClient, cfg.ContadorKeyPrefix)
	fila := redisstorage.NewFila(redisClient, cfg.FilaKeyPrefix)
	checker := health.NewChecker(sqlDB, redisClient, health.Verificacao{
		Nome: "fila",
		Fn: func(ctx context.Context) error {
			_, err := fila.Pendentes(ctx)
			return err
		},
	})

	if cfg.WorkerMetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthz", checker.LiveHandler())
			mux.HandleFunc("/readyz", checker.ReadyHandler())
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := http.ListenAndServe(cfg.WorkerMetricsAddress, mux); err != nil {
				logger.Error("erro no servidor de metrics do worker", "err", err)
			}
		}()
	}

	// O agendador só precisa das eleições; o resgate nunca roda no worker.
	servico := voting.NewService(voting.Dependencias{
		Eleicoes: postgresstorage.NewEleicaoRepository(db),
		Cedulas:  postgresstorage.NewCargoRepository(db),
		Clock:    clock.NewSystemClock(),
	}, voting.ComLogger(logger.L()))

	agendador, err := worker.NewAgendador(servico, cfg.AgendaStatus, logger.L())
	if err != nil {
		logger.Fatal("agenda de status invalida", "err", err)
	}
	agendador.Start()
	defer func() { <-agendador.Stop().Done() }()

	processor := worker.NewCedulaProcessor(contador)

	logger.Info("worker iniciado, aguardando cedulas", "agenda", cfg.AgendaStatus)
	err = fila.ConsumirCedulas(ctx, processor.Handler(fila, 500*time.Millisecond, logger.L()))

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Fatal("worker finalizado com erro", "err", err)
	}

	logger.Info("worker finalizado")
}
