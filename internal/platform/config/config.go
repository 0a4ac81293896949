// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config agrega todos os parâmetros necessários para API, worker e CLI.
type Config struct {
	Ambiente    string
	HTTPAddress string
	LogLevel    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	PostgresMaxConexoes     int
	PostgresConsultaLentaMS int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FilaKeyPrefix     string
	ContadorKeyPrefix string

	RateLimitEnabled       bool
	RateLimitMaxActions    int
	RateLimitWindowSeconds int
	RateLimitKeyPrefix     string

	SessaoSegredo          string
	SessaoTTLMinutos       int
	SessaoRevogacaoPrefixo string

	LockTimeoutMS           int
	RejeitarSelecaoInvalida bool
	CedulaCacheTTLSegundos  int
	AgendaStatus            string

	AutoMigrate bool

	WorkerMetricsAddress string
	AdminToken           string

	// ProxiesConfiaveis lista IPs ou CIDRs separados por vírgula cujo X-Forwarded-For é aceito.
	ProxiesConfiaveis string
}

// Load lê um .env opcional e depois as variáveis do processo, que sempre têm prioridade.
func Load() (Config, error) {
	if arquivo := getEnv("ENV_FILE", ".env"); arquivo != "" {
		if err := godotenv.Load(arquivo); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: ler %s: %w", arquivo, err)
		}
	}

	cfg := Config{
		Ambiente:                getEnv("AMBIENTE", "producao"),
		HTTPAddress:             getEnv("HTTP_ADDRESS", ":8080"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		PostgresHost:            getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:            getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:            getEnv("POSTGRES_USER", "eleicao"),
		PostgresPassword:        getEnv("POSTGRES_PASSWORD", "eleicao"),
		PostgresDB:              getEnv("POSTGRES_DB", "eleicao_escolar"),
		PostgresSSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresMaxConexoes:     getEnvAsInt("POSTGRES_MAX_CONNS", 25),
		PostgresConsultaLentaMS: getEnvAsInt("POSTGRES_SLOW_QUERY_MS", 500),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		FilaKeyPrefix:           getEnv("REDIS_QUEUE_PREFIX", "fila:cedulas"),
		ContadorKeyPrefix:       getEnv("REDIS_COUNTER_PREFIX", "contador"),
		RateLimitEnabled:        getEnvAsBool("LOGIN_RATE_LIMIT_ENABLED", true),
		RateLimitMaxActions:     getEnvAsInt("LOGIN_RATE_LIMIT_MAX", 10),
		RateLimitWindowSeconds:  getEnvAsInt("LOGIN_RATE_LIMIT_WINDOW", 60),
		RateLimitKeyPrefix:      getEnv("LOGIN_RATE_LIMIT_PREFIX", "ratelimit:login"),
		SessaoSegredo:           os.Getenv("SESSAO_SEGREDO"),
		SessaoTTLMinutos:        getEnvAsInt("SESSAO_TTL_MINUTOS", 30),
		SessaoRevogacaoPrefixo:  getEnv("SESSAO_REVOGACAO_PREFIX", "sessao:revogada"),
		LockTimeoutMS:           getEnvAsInt("LOCK_TIMEOUT_MS", 3000),
		RejeitarSelecaoInvalida: getEnvAsBool("REJEITAR_SELECAO_INVALIDA", false),
		CedulaCacheTTLSegundos:  getEnvAsInt("CEDULA_CACHE_TTL_SEGUNDOS", 30),
		AgendaStatus:            getEnv("AGENDA_STATUS", "@every 1m"),
		AutoMigrate:             getEnvAsBool("DB_AUTO_MIGRATE", true),
		WorkerMetricsAddress:    getEnv("WORKER_METRICS_ADDRESS", ":9090"),
		AdminToken:              os.Getenv("ADMIN_TOKEN"),
		ProxiesConfiaveis:       os.Getenv("TRUSTED_PROXIES"),
	}

	dbStr := getEnv("REDIS_DB", "0")
	dbInt, err := strconv.Atoi(dbStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: REDIS_DB invalido: %w", err)
	}
	cfg.RedisDB = dbInt

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate barra combinações que deixariam sessões de eleitor forjáveis fora do ambiente local.
func (c Config) Validate() error {
	if c.Ambiente != "dev" && len(c.SessaoSegredo) < 32 {
		return fmt.Errorf("config: SESSAO_SEGREDO precisa de ao menos 32 caracteres fora de dev")
	}
	if c.SessaoTTLMinutos <= 0 {
		return fmt.Errorf("config: SESSAO_TTL_MINUTOS deve ser positivo")
	}
	if c.LockTimeoutMS < 0 {
		return fmt.Errorf("config: LOCK_TIMEOUT_MS nao pode ser negativo")
	}
	if _, err := c.Proxies(); err != nil {
		return err
	}
	return nil
}

// Proxies interpreta TRUSTED_PROXIES; um IP sem máscara vira um prefixo /32 ou /128.
func (c Config) Proxies() ([]netip.Prefix, error) {
	var prefixos []netip.Prefix
	for _, item := range strings.Split(c.ProxiesConfiaveis, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("config: TRUSTED_PROXIES invalido %q: %w", item, err)
			}
			prefixos = append(prefixos, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("config: TRUSTED_PROXIES invalido %q: %w", item, err)
		}
		addr = addr.Unmap()
		prefixos = append(prefixos, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixos, nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func (c Config) SessaoTTL() time.Duration {
	return time.Duration(c.SessaoTTLMinutos) * time.Minute
}

func (c Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

func (c Config) ConsultaLenta() time.Duration {
	return time.Duration(c.PostgresConsultaLentaMS) * time.Millisecond
}

func (c Config) CedulaCacheTTL() time.Duration {
	return time.Duration(c.CedulaCacheTTLSegundos) * time.Second
}

// SegredoDeDesenvolvimento indica que os tokens estão sendo assinados com o segredo fixo de dev.
func (c Config) SegredoDeDesenvolvimento() bool {
	return c.SessaoSegredo == ""
}

// SegredoSessao devolve um segredo fixo de desenvolvimento quando nenhum foi configurado.
func (c Config) SegredoSessao() []byte {
	if c.SessaoSegredo == "" {
		return []byte("dev-somente-segredo-de-sessao-local")
	}
	return []byte(c.SessaoSegredo)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
