package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
	"github.com/marcelojr/eleicao-escolar/internal/platform/ids"
	"github.com/marcelojr/eleicao-escolar/internal/platform/migrations"
)

func setupPostgres(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Uma única conexão: o banco em memória pertence a ela e as transações concorrentes ficam serializadas.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migrations.Run(db))

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// novaEleicao monta uma eleição com dois cargos (Presidente e Tesoureiro) e dois candidatos em cada.
func novaEleicao(gen *ids.Generator, status domain.StatusEleicao) domain.Eleicao {
	now := time.Now().UTC().Truncate(time.Second)
	eleicaoID := ids.NewID[domain.EleicaoID](gen)
	presidente := ids.NewID[domain.CargoID](gen)
	tesoureiro := ids.NewID[domain.CargoID](gen)

	return domain.Eleicao{
		ID:     eleicaoID,
		Nome:   "Grêmio Estudantil 2025",
		Status: status,
		Inicio: now.Add(-time.Hour),
		Fim:    now.Add(time.Hour),
		Cargos: []domain.Cargo{
			{
				ID:        tesoureiro,
				EleicaoID: eleicaoID,
				Titulo:    "Tesoureiro",
				Ordem:     2,
				Candidatos: []domain.Candidato{
					{ID: ids.NewID[domain.CandidatoID](gen), CargoID: tesoureiro, Nome: "Rafael"},
					{ID: ids.NewID[domain.CandidatoID](gen), CargoID: tesoureiro, Nome: "Bianca"},
				},
			},
			{
				ID:        presidente,
				EleicaoID: eleicaoID,
				Titulo:    "Presidente",
				Ordem:     1,
				Candidatos: []domain.Candidato{
					{ID: ids.NewID[domain.CandidatoID](gen), CargoID: presidente, Nome: "Marina"},
					{ID: ids.NewID[domain.CandidatoID](gen), CargoID: presidente, Nome: "Lucas"},
				},
			},
		},
		CriadoEm:     now,
		AtualizadoEm: now,
	}
}

func criarEleicao(t *testing.T, db *gorm.DB, gen *ids.Generator, status domain.StatusEleicao) domain.Eleicao {
	e := novaEleicao(gen, status)
	require.NoError(t, NewEleicaoRepository(db).Create(context.Background(), e))
	return e
}

func criarCodigo(t *testing.T, db *gorm.DB, gen *ids.Generator, eleicaoID domain.EleicaoID) domain.CodigoVotacao {
	valor, err := ids.NovoCodigo()
	require.NoError(t, err)

	c := domain.CodigoVotacao{
		ID:        ids.NewID[domain.CodigoVotacaoID](gen),
		Codigo:    valor,
		EleicaoID: eleicaoID,
		CriadoEm:  time.Now().UTC(),
	}
	require.NoError(t, NewCodigoRepository(db).BulkCreate(context.Background(), []domain.CodigoVotacao{c}))
	return c
}
