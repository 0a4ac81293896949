package voting

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
	"github.com/marcelojr/eleicao-escolar/internal/platform/ids"
	"github.com/marcelojr/eleicao-escolar/internal/platform/metrics"
)

const (
	motivoCargoFora     = "cargo_fora_da_eleicao"
	motivoCandidatoFora = "candidato_fora_do_cargo"
)

// plano separa a seleção em escolhas válidas (na ordem da cédula) e pares descartados.
type plano struct {
	validas   []domain.Escolha
	ignoradas []domain.SelecaoIgnorada
}

// Resgatar consome o código da sessão e grava um voto por cargo numa única transação.
// Qualquer falha devolve *Aborto e nada fica gravado.
func (s *Service) Resgatar(ctx context.Context, sessao domain.Sessao, selecao domain.Selecao) (res domain.Resgate, err error) {
	inicio := time.Now()
	defer func() {
		metrics.ObserveResgate(CodigoMotivo(err), time.Since(inicio).Seconds())

		var ab *Aborto
		if errors.As(err, &ab) {
			s.registrarAborto(sessao, ab)
			if ab.InvalidaSessao() {
				s.revogarSemFalhar(ctx, sessao)
			}
		}
	}()

	cargos, err := s.validarPrecondicoes(ctx, sessao, selecao)
	if err != nil {
		return domain.Resgate{}, err
	}

	p := montarPlano(cargos, selecao)
	if s.politica == RejeitarInvalidas && len(p.ignoradas) > 0 {
		invalidos := lo.Uniq(lo.Map(p.ignoradas, func(i domain.SelecaoIgnorada, _ int) domain.CargoID {
			return i.CargoID
		}))
		return domain.Resgate{}, abortar(ErrSelecaoInvalida, invalidos, nil)
	}

	agora := s.clock.Agora()
	var votos []domain.Voto
	err = s.transacoes.Resgatar(ctx, func(tx domain.TxResgate) error {
		votos = votos[:0]

		status, err := tx.StatusEleicao(ctx, sessao.EleicaoID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return abortar(ErrEleicaoInativa, nil, nil)
			}
			return err
		}
		if status != domain.StatusAtiva {
			return abortar(ErrEleicaoInativa, nil, nil)
		}

		codigo, err := tx.BloquearCodigo(ctx, sessao.CodigoVotacaoID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return abortar(ErrCodigoInexistente, nil, nil)
			}
			return err
		}
		if codigo.EleicaoID != sessao.EleicaoID {
			return abortar(ErrCodigoInexistente, nil, nil)
		}
		if codigo.Usado {
			return abortar(ErrCodigoUsado, nil, nil)
		}

		n, err := tx.MarcarUsado(ctx, codigo.ID, agora)
		if err != nil {
			return err
		}
		if n != 1 {
			return abortar(ErrCorridaPerdida, nil, nil)
		}

		for _, escolha := range p.validas {
			voto := domain.Voto{
				ID:              ids.NewID[domain.VotoID](s.ids),
				EleicaoID:       sessao.EleicaoID,
				CargoID:         escolha.CargoID,
				CandidatoID:     escolha.CandidatoID,
				CodigoVotacaoID: codigo.ID,
				CriadoEm:        agora,
			}
			if err := tx.RegistrarVoto(ctx, voto); err != nil {
				return err
			}
			votos = append(votos, voto)
		}
		return nil
	})
	if err != nil {
		return domain.Resgate{}, traduzirErroTransacao(err)
	}

	res = domain.Resgate{
		EleicaoID:        sessao.EleicaoID,
		CodigoVotacaoID:  sessao.CodigoVotacaoID,
		Votos:            votos,
		VotosRegistrados: len(votos),
		Ignorados:        p.ignoradas,
		ConcluidoEm:      agora,
	}
	s.aposCommit(ctx, sessao, res, p)
	return res, nil
}

// validarPrecondicoes roda sem transação: falha rápido sem segurar lock.
func (s *Service) validarPrecondicoes(ctx context.Context, sessao domain.Sessao, selecao domain.Selecao) ([]domain.Cargo, error) {
	if err := s.VerificarEleicaoAtiva(ctx, sessao.EleicaoID); err != nil {
		if errors.Is(err, ErrEleicaoInativa) || errors.Is(err, ErrEleicaoNaoEncontrada) {
			return nil, abortar(ErrEleicaoInativa, nil, nil)
		}
		return nil, abortar(ErrInterno, nil, err)
	}

	if _, err := s.codigoDaSessao(ctx, sessao); err != nil {
		if errors.Is(err, ErrCodigoInexistente) || errors.Is(err, ErrCodigoUsado) {
			return nil, abortar(err, nil, nil)
		}
		return nil, abortar(ErrInterno, nil, err)
	}

	cargos, err := s.cedulas.CarregarCedula(ctx, sessao.EleicaoID)
	if err != nil {
		return nil, abortar(ErrInterno, nil, err)
	}
	if len(cargos) == 0 {
		return nil, abortar(ErrCedulaVazia, nil, nil)
	}

	faltando := lo.FilterMap(cargos, func(c domain.Cargo, _ int) (domain.CargoID, bool) {
		return c.ID, selecao[c.ID] == ""
	})
	if len(faltando) > 0 {
		return nil, abortar(ErrCedulaIncompleta, faltando, nil)
	}
	return cargos, nil
}

// montarPlano confere cada par contra a cédula. Cargos da cédula vêm primeiro, na ordem dela;
// cargos desconhecidos vêm depois, ordenados, para que o log seja determinístico.
func montarPlano(cargos []domain.Cargo, selecao domain.Selecao) plano {
	var p plano
	conhecidos := make(map[domain.CargoID]struct{}, len(cargos))

	for _, cargo := range cargos {
		conhecidos[cargo.ID] = struct{}{}
		candidatoID, ok := selecao[cargo.ID]
		if !ok {
			continue
		}
		pertence := lo.ContainsBy(cargo.Candidatos, func(c domain.Candidato) bool {
			return c.ID == candidatoID
		})
		if !pertence {
			p.ignoradas = append(p.ignoradas, domain.SelecaoIgnorada{
				CargoID:     cargo.ID,
				CandidatoID: candidatoID,
				Motivo:      motivoCandidatoFora,
			})
			continue
		}
		p.validas = append(p.validas, domain.Escolha{CargoID: cargo.ID, CandidatoID: candidatoID})
	}

	extras := lo.Filter(lo.Keys(selecao), func(id domain.CargoID, _ int) bool {
		_, ok := conhecidos[id]
		return !ok
	})
	slices.Sort(extras)
	for _, cargoID := range extras {
		p.ignoradas = append(p.ignoradas, domain.SelecaoIgnorada{
			CargoID:     cargoID,
			CandidatoID: selecao[cargoID],
			Motivo:      motivoCargoFora,
		})
	}
	return p
}

func traduzirErroTransacao(err error) error {
	var ab *Aborto
	if errors.As(err, &ab) {
		return ab
	}
	if errors.Is(err, domain.ErrLockTimeout) {
		return abortar(ErrOcupado, nil, err)
	}
	// Violação do índice (codigo_votacao_id, cargo_id) também cai aqui: sob o lock ela é inalcançável.
	return abortar(ErrInterno, nil, err)
}

func (s *Service) aposCommit(ctx context.Context, sessao domain.Sessao, res domain.Resgate, p plano) {
	for _, ig := range p.ignoradas {
		s.logger.Warn("selecao ignorada no resgate",
			"eleicao_id", sessao.EleicaoID,
			"cargo_id", ig.CargoID,
			"candidato_id", ig.CandidatoID,
			"motivo", ig.Motivo,
		)
	}
	metrics.AddSelecoesIgnoradas(len(p.ignoradas))

	s.revogarSemFalhar(ctx, sessao)

	if s.fila != nil {
		evento := domain.CedulaRegistrada{
			EleicaoID:       res.EleicaoID,
			CodigoVotacaoID: res.CodigoVotacaoID,
			Escolhas:        p.validas,
			RegistradaEm:    res.ConcluidoEm,
		}
		if err := s.fila.PublicarCedula(context.WithoutCancel(ctx), evento); err != nil {
			s.logger.Error("falha ao publicar cedula registrada", "eleicao_id", res.EleicaoID, "error", err)
		}
	}

	s.logger.Info("codigo resgatado",
		"eleicao_id", res.EleicaoID,
		"votos", res.VotosRegistrados,
		"ignorados", len(res.Ignorados),
	)
}

func (s *Service) registrarAborto(sessao domain.Sessao, ab *Aborto) {
	attrs := []any{"eleicao_id", sessao.EleicaoID, "motivo", CodigoMotivo(ab)}
	if len(ab.Cargos) > 0 {
		attrs = append(attrs, "cargos", ab.Cargos)
	}
	if ab.causa != nil {
		s.logger.Error("resgate abortado", append(attrs, "error", ab.causa)...)
		return
	}
	s.logger.Info("resgate abortado", attrs...)
}
