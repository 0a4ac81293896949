package voting

import (
	"context"
	"errors"

	"github.com/samber/lo"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// Resultados apura a eleição direto dos votos gravados no Postgres.
func (s *Service) Resultados(ctx context.Context, eleicaoID domain.EleicaoID) (domain.Apuracao, error) {
	eleicao, err := s.BuscarEleicao(ctx, eleicaoID)
	if err != nil {
		return domain.Apuracao{}, err
	}

	cedulas, err := s.votos.TotalCedulas(ctx, eleicaoID)
	if err != nil {
		return domain.Apuracao{}, err
	}
	totais, err := s.votos.TotalPorCandidato(ctx, eleicaoID)
	if err != nil {
		return domain.Apuracao{}, err
	}

	return domain.Apuracao{
		EleicaoID: eleicaoID,
		Cedulas:   cedulas,
		Cargos: lo.Map(eleicao.Cargos, func(c domain.Cargo, _ int) domain.ResultadoCargo {
			return apurarCargo(eleicaoID, c, func(cand domain.Candidato) int64 { return totais[cand.ID] })
		}),
		AtualizadoEm: s.clock.Agora(),
	}, nil
}

// ResultadosAoVivo usa os contadores do Redis mantidos pelo worker; sem contador, cai no Postgres.
// Os números podem ficar alguns segundos atrás dos votos gravados.
func (s *Service) ResultadosAoVivo(ctx context.Context, eleicaoID domain.EleicaoID) (domain.Apuracao, error) {
	if s.contador == nil {
		return s.Resultados(ctx, eleicaoID)
	}
	if _, err := s.eleicoes.Status(ctx, eleicaoID); err != nil {
		return domain.Apuracao{}, traduzirNaoEncontrada(err)
	}

	cargos, err := s.cedulas.CarregarCedula(ctx, eleicaoID)
	if err != nil {
		return domain.Apuracao{}, err
	}

	chaves := []string{CounterKeyCedulas(eleicaoID)}
	for _, c := range cargos {
		for _, cand := range c.Candidatos {
			chaves = append(chaves, CounterKeyCandidato(eleicaoID, c.ID, cand.ID))
		}
	}
	valores, err := s.contador.ObterTodos(ctx, chaves)
	if err != nil {
		return domain.Apuracao{}, err
	}

	return domain.Apuracao{
		EleicaoID: eleicaoID,
		Cedulas:   valores[CounterKeyCedulas(eleicaoID)],
		Cargos: lo.Map(cargos, func(c domain.Cargo, _ int) domain.ResultadoCargo {
			return apurarCargo(eleicaoID, c, func(cand domain.Candidato) int64 {
				return valores[CounterKeyCandidato(eleicaoID, c.ID, cand.ID)]
			})
		}),
		AtualizadoEm: s.clock.Agora(),
	}, nil
}

func (s *Service) TotaisPorHora(ctx context.Context, eleicaoID domain.EleicaoID) ([]domain.ParcialHora, error) {
	if _, err := s.eleicoes.Status(ctx, eleicaoID); err != nil {
		return nil, traduzirNaoEncontrada(err)
	}
	return s.votos.TotalPorHora(ctx, eleicaoID)
}

func traduzirNaoEncontrada(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrEleicaoNaoEncontrada
	}
	return err
}

func apurarCargo(eleicaoID domain.EleicaoID, c domain.Cargo, total func(domain.Candidato) int64) domain.ResultadoCargo {
	parciais := lo.Map(c.Candidatos, func(cand domain.Candidato, _ int) domain.Parcial {
		return domain.Parcial{CandidatoID: cand.ID, Nome: cand.Nome, Total: total(cand)}
	})
	soma := lo.SumBy(parciais, func(p domain.Parcial) int64 { return p.Total })
	if soma > 0 {
		for i := range parciais {
			parciais[i].Percentual = float64(parciais[i].Total) / float64(soma) * 100
		}
	}
	return domain.ResultadoCargo{
		EleicaoID:  eleicaoID,
		CargoID:    c.ID,
		Titulo:     c.Titulo,
		Total:      soma,
		Candidatos: parciais,
	}
}
