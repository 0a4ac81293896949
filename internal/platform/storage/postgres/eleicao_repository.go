package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// EleicaoRepository grava a eleição junto com cargos e candidatos e controla o status.
type EleicaoRepository struct {
	db *gorm.DB
}

func NewEleicaoRepository(db *gorm.DB) *EleicaoRepository {
	return &EleicaoRepository{db: db}
}

func (r *EleicaoRepository) Create(ctx context.Context, e domain.Eleicao) error {
	model := fromDomainEleicao(e)
	// GORM cria as associações (cargos e candidatos) na mesma transação implícita.
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm eleicao: inserir: %w", traduzirErro(err))
	}
	return nil
}

func (r *EleicaoRepository) FindByID(ctx context.Context, id domain.EleicaoID) (domain.Eleicao, error) {
	var model eleicaoModel
	err := r.db.WithContext(ctx).
		Preload("Cargos", ordenarCargos).
		Preload("Cargos.Candidatos", ordenarCandidatos).
		Take(&model, "id = ?", string(id)).Error
	if err != nil {
		err = traduzirErro(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Eleicao{}, err
		}
		return domain.Eleicao{}, fmt.Errorf("gorm eleicao: buscar id: %w", err)
	}
	return model.toDomain(true), nil
}

func (r *EleicaoRepository) Status(ctx context.Context, id domain.EleicaoID) (domain.StatusEleicao, error) {
	return lerStatus(ctx, r.db, id)
}

func (r *EleicaoRepository) UpdateStatus(ctx context.Context, id domain.EleicaoID, status domain.StatusEleicao, em time.Time) error {
	res := r.db.WithContext(ctx).Model(&eleicaoModel{}).
		Where("id = ?", string(id)).
		Updates(map[string]any{
			"status":        string(status),
			"atualizado_em": em,
		})
	if res.Error != nil {
		return fmt.Errorf("gorm eleicao: atualizar status: %w", traduzirErro(res.Error))
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EleicaoRepository) ListByStatus(ctx context.Context, status ...domain.StatusEleicao) ([]domain.Eleicao, error) {
	valores := make([]string, len(status))
	for i, s := range status {
		valores[i] = string(s)
	}

	var models []eleicaoModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", valores).
		Order("inicio ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm eleicao: listar por status: %w", err)
	}

	result := make([]domain.Eleicao, len(models))
	for i, model := range models {
		result[i] = model.toDomain(false)
	}
	return result, nil
}

// lerStatus é compartilhado com a transação de resgate, que precisa reler o status no mesmo tx.
func lerStatus(ctx context.Context, db *gorm.DB, id domain.EleicaoID) (domain.StatusEleicao, error) {
	var model eleicaoModel
	if err := db.WithContext(ctx).Select("id", "status").Take(&model, "id = ?", string(id)).Error; err != nil {
		err = traduzirErro(err)
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("gorm eleicao: ler status: %w", err)
	}
	return domain.StatusEleicao(model.Status), nil
}

func ordenarCargos(db *gorm.DB) *gorm.DB {
	return db.Order("ordem ASC, titulo ASC")
}

func ordenarCandidatos(db *gorm.DB) *gorm.DB {
	return db.Order("nome ASC")
}

var _ domain.EleicaoRepository = (*EleicaoRepository)(nil)
