package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// VotoRepository expõe somente leituras agregadas; votos só são gravados pela transação de resgate.
type VotoRepository struct {
	db *gorm.DB
}

func NewVotoRepository(db *gorm.DB) *VotoRepository {
	return &VotoRepository{db: db}
}

// TotalCedulas conta códigos resgatados, e não códigos com votos: uma cédula em que todos os pares
// foram ignorados consome o código sem gravar voto e ainda assim é uma cédula depositada.
func (r *VotoRepository) TotalCedulas(ctx context.Context, eleicaoID domain.EleicaoID) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&codigoModel{}).
		Where("eleicao_id = ? AND usado = ?", string(eleicaoID), true).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("gorm votos: total cedulas: %w", err)
	}
	return total, nil
}

func (r *VotoRepository) TotalPorCandidato(ctx context.Context, eleicaoID domain.EleicaoID) (map[domain.CandidatoID]int64, error) {
	type resultado struct {
		CandidatoID string
		Total       int64
	}
	var res []resultado
	if err := r.db.WithContext(ctx).
		Model(&votoModel{}).
		Select("candidato_id as candidato_id, COUNT(*) as total").
		Where("eleicao_id = ?", string(eleicaoID)).
		Group("candidato_id").
		Scan(&res).Error; err != nil {
		return nil, fmt.Errorf("gorm votos: total candidato: %w", err)
	}

	totais := make(map[domain.CandidatoID]int64, len(res))
	for _, item := range res {
		totais[domain.CandidatoID(item.CandidatoID)] = item.Total
	}
	return totais, nil
}

// TotalPorHora conta códigos resgatados por hora de uso; depende do date_trunc do Postgres.
func (r *VotoRepository) TotalPorHora(ctx context.Context, eleicaoID domain.EleicaoID) ([]domain.ParcialHora, error) {
	type resultado struct {
		Hora  time.Time
		Total int64
	}

	var res []resultado
	if err := r.db.WithContext(ctx).
		Raw(`
            SELECT date_trunc('hour', usado_em) AS hora, COUNT(*) AS total
            FROM codigos_votacao
            WHERE eleicao_id = ? AND usado = TRUE
            GROUP BY hora
            ORDER BY hora ASC
        `, string(eleicaoID)).
		Scan(&res).Error; err != nil {
		return nil, fmt.Errorf("gorm votos: total hora: %w", err)
	}

	parciais := make([]domain.ParcialHora, len(res))
	for i, item := range res {
		parciais[i] = domain.ParcialHora{
			EleicaoID: eleicaoID,
			Hora:      item.Hora,
			Total:     item.Total,
		}
	}
	return parciais, nil
}

var _ domain.VotoRepository = (*VotoRepository)(nil)
