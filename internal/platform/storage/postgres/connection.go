// Pacote postgres implementa a camada de persistência no Postgres via GORM, incluindo a transação de resgate.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type Opcoes struct {
	MaxConexoes int
	// ConsultaLenta é o limite a partir do qual o GORM registra a query em WARN.
	ConsultaLenta time.Duration
	Logger        *slog.Logger
}

func (o Opcoes) comDefaults() Opcoes {
	if o.MaxConexoes <= 0 {
		o.MaxConexoes = 25
	}
	if o.ConsultaLenta <= 0 {
		o.ConsultaLenta = 500 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func Open(ctx context.Context, dsn string, opcoes Opcoes) (*gorm.DB, error) {
	opcoes = opcoes.comDefaults()

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         novoLoggerGorm(opcoes),
		// gorm.ErrDuplicatedKey em vez do erro cru do driver.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres gorm: abrir conexao: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres gorm: obter sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(opcoes.MaxConexoes)
	sqlDB.SetMaxIdleConns(opcoes.MaxConexoes)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctxPing); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres gorm: ping falhou: %w", err)
	}

	return gormDB, nil
}

// Close devolve as conexões do pool; usado no encerramento dos binários.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres gorm: obter sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func novoLoggerGorm(opcoes Opcoes) gormlogger.Interface {
	saida := slog.NewLogLogger(opcoes.Logger.With("componente", "gorm").Handler(), slog.LevelWarn)
	return gormlogger.New(saida, gormlogger.Config{
		SlowThreshold:             opcoes.ConsultaLenta,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
