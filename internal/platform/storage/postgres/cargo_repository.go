package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// CargoRepository projeta a cédula (cargos e candidatos) de uma eleição.
type CargoRepository struct {
	db *gorm.DB
}

func NewCargoRepository(db *gorm.DB) *CargoRepository {
	return &CargoRepository{db: db}
}

func (r *CargoRepository) CarregarCedula(ctx context.Context, eleicaoID domain.EleicaoID) ([]domain.Cargo, error) {
	var models []cargoModel
	if err := r.db.WithContext(ctx).
		Preload("Candidatos", ordenarCandidatos).
		Where("eleicao_id = ?", string(eleicaoID)).
		Scopes(ordenarCargos).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm cargos: carregar cedula: %w", err)
	}

	cargos := make([]domain.Cargo, len(models))
	for i, model := range models {
		cargos[i] = model.toDomain()
	}
	return cargos, nil
}

var _ domain.CarregadorCedula = (*CargoRepository)(nil)
