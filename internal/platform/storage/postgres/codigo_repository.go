package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// CodigoRepository cuida do ciclo de vida administrativo dos códigos de votação.
type CodigoRepository struct {
	db *gorm.DB
}

func NewCodigoRepository(db *gorm.DB) *CodigoRepository {
	return &CodigoRepository{db: db}
}

func (r *CodigoRepository) BulkCreate(ctx context.Context, codigos []domain.CodigoVotacao) error {
	if len(codigos) == 0 {
		return nil
	}

	models := make([]codigoModel, len(codigos))
	for i, c := range codigos {
		models[i] = fromDomainCodigo(c)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&models, 500).Error; err != nil {
		return fmt.Errorf("gorm codigos: bulk create: %w", traduzirErro(err))
	}
	return nil
}

func (r *CodigoRepository) FindByID(ctx context.Context, id domain.CodigoVotacaoID) (domain.CodigoVotacao, error) {
	return r.buscar(ctx, "id = ?", string(id))
}

func (r *CodigoRepository) FindByCodigo(ctx context.Context, codigo string) (domain.CodigoVotacao, error) {
	return r.buscar(ctx, "codigo = ?", codigo)
}

func (r *CodigoRepository) buscar(ctx context.Context, query string, arg any) (domain.CodigoVotacao, error) {
	var model codigoModel
	if err := r.db.WithContext(ctx).Take(&model, query, arg).Error; err != nil {
		err = traduzirErro(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CodigoVotacao{}, err
		}
		return domain.CodigoVotacao{}, fmt.Errorf("gorm codigos: buscar: %w", err)
	}
	return model.toDomain(), nil
}

func (r *CodigoRepository) ListByEleicao(ctx context.Context, eleicaoID domain.EleicaoID) ([]domain.CodigoVotacao, error) {
	var models []codigoModel
	if err := r.db.WithContext(ctx).
		Where("eleicao_id = ?", string(eleicaoID)).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm codigos: listar: %w", err)
	}

	result := make([]domain.CodigoVotacao, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

func (r *CodigoRepository) DeleteNaoUsado(ctx context.Context, id domain.CodigoVotacaoID) error {
	// O filtro usado = false garante que um código resgatado nunca some, mesmo em corrida com o resgate.
	res := r.db.WithContext(ctx).
		Where("id = ? AND usado = ?", string(id), false).
		Delete(&codigoModel{})
	if res.Error != nil {
		return fmt.Errorf("gorm codigos: remover: %w", traduzirErro(res.Error))
	}
	if res.RowsAffected == 1 {
		return nil
	}

	atual, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if atual.Usado {
		return domain.ErrCodigoUtilizado
	}
	return domain.ErrNotFound
}

var _ domain.CodigoRepository = (*CodigoRepository)(nil)
