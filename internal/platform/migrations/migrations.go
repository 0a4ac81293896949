// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização e pela CLI.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

func lista() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202501150001_schema_eleicao",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Eleicao{}, &domain.Cargo{}, &domain.Candidato{}, &domain.CodigoVotacao{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("codigos_votacao", "candidatos", "cargos", "eleicoes")
			},
		},
		{
			// O índice único (codigo_votacao_id, cargo_id) torna estrutural a regra de um voto por cargo.
			ID: "202501150002_votos",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Voto{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("votos")
			},
		},
	}
}

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, lista())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}

	return nil
}

// RollbackLast desfaz apenas a migração mais recente.
func RollbackLast(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, lista())
	if err := m.RollbackLast(); err != nil {
		return fmt.Errorf("migrations: falha ao desfazer: %w", err)
	}
	return nil
}
