package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// ResgateUnitOfWork abre a transação do resgate de um código. Tudo o que acontece dentro de fn
// é confirmado junto ou desfeito junto.
type ResgateUnitOfWork struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewResgateUnitOfWork recebe o tempo máximo de espera pelo lock da linha do código; zero desliga o limite.
func NewResgateUnitOfWork(db *gorm.DB, lockTimeout time.Duration) *ResgateUnitOfWork {
	return &ResgateUnitOfWork{db: db, lockTimeout: lockTimeout}
}

func (u *ResgateUnitOfWork) Resgatar(ctx context.Context, fn func(domain.TxResgate) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SET LOCAL vale só para esta transação; outros dialetos (sqlite nos testes) não conhecem o comando.
		if u.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("gorm resgate: lock_timeout: %w", err)
			}
		}
		return fn(&txResgate{db: tx})
	})
}

type txResgate struct {
	db *gorm.DB
}

func (t *txResgate) StatusEleicao(ctx context.Context, id domain.EleicaoID) (domain.StatusEleicao, error) {
	return lerStatus(ctx, t.db, id)
}

func (t *txResgate) BloquearCodigo(ctx context.Context, id domain.CodigoVotacaoID) (domain.CodigoVotacao, error) {
	var model codigoModel
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&model, "id = ?", string(id)).Error
	if err != nil {
		err = traduzirErro(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CodigoVotacao{}, err
		}
		return domain.CodigoVotacao{}, fmt.Errorf("gorm resgate: bloquear codigo: %w", err)
	}
	return model.toDomain(), nil
}

func (t *txResgate) MarcarUsado(ctx context.Context, id domain.CodigoVotacaoID, em time.Time) (int64, error) {
	// A condição usado = false repete a checagem feita sob o lock; se outro resgate ganhou, nada é alterado.
	res := t.db.WithContext(ctx).
		Model(&codigoModel{}).
		Where("id = ? AND usado = ?", string(id), false).
		Updates(map[string]any{
			"usado":    true,
			"usado_em": em,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm resgate: marcar usado: %w", traduzirErro(res.Error))
	}
	return res.RowsAffected, nil
}

func (t *txResgate) RegistrarVoto(ctx context.Context, voto domain.Voto) error {
	model := fromDomainVoto(voto)
	if err := t.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm resgate: registrar voto: %w", traduzirErro(err))
	}
	return nil
}

var _ domain.Transacionador = (*ResgateUnitOfWork)(nil)
