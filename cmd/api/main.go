// Executável principal da API: carrega a configuração, inicializa dependências e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/eleicao-escolar/internal/app/httpapi"
	"github.com/marcelojr/eleicao-escolar/internal/app/voting"
	"github.com/marcelojr/eleicao-escolar/internal/domain"
	"github.com/marcelojr/eleicao-escolar/internal/platform/antifraude"
	"github.com/marcelojr/eleicao-escolar/internal/platform/cache"
	"github.com/marcelojr/eleicao-escolar/internal/platform/clock"
	"github.com/marcelojr/eleicao-escolar/internal/platform/config"
	"github.com/marcelojr/eleicao-escolar/internal/platform/health"
	"github.com/marcelojr/eleicao-escolar/internal/platform/ids"
	"github.com/marcelojr/eleicao-escolar/internal/platform/logger"
	"github.com/marcelojr/eleicao-escolar/internal/platform/migrations"
	"github.com/marcelojr/eleicao-escolar/internal/platform/sessao"
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

	cedulas, err := cache.NewCedulaCache(postgresstorage.NewCargoRepository(db), cfg.CedulaCacheTTL(), logger.L())
	if err != nil {
		logger.Fatal("falha ao criar cache de cedulas", "err", err)
	}
	defer cedulas.Close()

	clockSystem := clock.NewSystemClock()
	revogacao := redisstorage.NewRevogacao(redisClient, cfg.SessaoRevogacaoPrefixo)
	sessoes := sessao.NewGerenciador(cfg.SegredoSessao(), cfg.SessaoTTL(), revogacao, clockSystem)

	var antifraudeSvc domain.Antifraude = antifraude.NewNoop()
	if cfg.RateLimitEnabled {
		window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		antifraudeSvc = antifraude.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxActions, window, cfg.RateLimitKeyPrefix)
	}

	politica := voting.IgnorarInvalidas
	if cfg.RejeitarSelecaoInvalida {
		politica = voting.RejeitarInvalidas
	}

	servico := voting.NewService(voting.Dependencias{
		Eleicoes:   postgresstorage.NewEleicaoRepository(db),
		Cedulas:    cedulas,
		Codigos:    postgresstorage.NewCodigoRepository(db),
		Votos:      postgresstorage.NewVotoRepository(db),
		Transacoes: postgresstorage.NewResgateUnitOfWork(db, cfg.LockTimeout()),
		Contador:   redisstorage.NewContador(redisClient, cfg.ContadorKeyPrefix),
		Fila:       redisstorage.NewFila(redisClient, cfg.FilaKeyPrefix),
		Antifraude: antifraudeSvc,
		Sessoes:    sessoes,
		Revogacao:  revogacao,
		Clock:      clockSystem,
		IDs:        ids.NewGenerator(ids.ComRelogio(clockSystem.Agora)),
	}, voting.ComPolitica(politica), voting.ComLogger(logger.L()))

	mux := http.NewServeMux()
	checker := health.NewChecker(sqlDB, redisClient)

	proxies, err := cfg.Proxies()
	if err != nil {
		logger.Fatal("TRUSTED_PROXIES invalido", "err", err)
	}
	api := httpapi.New(servico, sessoes, cfg.AdminToken, logger.L(), httpapi.ComProxiesConfiaveis(proxies))
	api.Register(mux)
	mux.HandleFunc("GET /healthz", checker.LiveHandler())
	mux.HandleFunc("GET /readyz", checker.ReadyHandler())
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.SegredoDeDesenvolvimento() {
		logger.Warn("SESSAO_SEGREDO vazio, tokens assinados com o segredo fixo de desenvolvimento", "ambiente", cfg.Ambiente)
	}
	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN vazio, rotas /admin desabilitadas")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("erro ao encerrar servidor", "err", err)
		}
	}()

	logger.Info("api ouvindo", "addr", cfg.HTTPAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("erro no servidor", "err", err)
	}
	logger.Info("api finalizada")
}
