package voting

import (
	"context"
	"errors"
	"strings"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
	"github.com/marcelojr/eleicao-escolar/internal/platform/ids"
)

const (
	maxCodigosPorLote   = 1000
	tentativasGerarLote = 3
)

// GerarCodigos cria n códigos livres para a eleição. Uma colisão com código já existente
// invalida o lote inteiro, que é gerado de novo.
func (s *Service) GerarCodigos(ctx context.Context, eleicaoID domain.EleicaoID, n int) ([]domain.CodigoVotacao, error) {
	if n < 1 || n > maxCodigosPorLote {
		return nil, ErrQuantidadeInvalida
	}
	if _, err := s.BuscarEleicao(ctx, eleicaoID); err != nil {
		return nil, err
	}

	var ultimoErr error
	for tentativa := 0; tentativa < tentativasGerarLote; tentativa++ {
		lote, err := s.novoLote(eleicaoID, n)
		if err != nil {
			return nil, err
		}
		err = s.codigos.BulkCreate(ctx, lote)
		if err == nil {
			s.logger.Info("codigos gerados", "eleicao_id", eleicaoID, "quantidade", n)
			return lote, nil
		}
		if !errors.Is(err, domain.ErrConflito) {
			return nil, err
		}
		ultimoErr = err
	}
	return nil, ultimoErr
}

func (s *Service) novoLote(eleicaoID domain.EleicaoID, n int) ([]domain.CodigoVotacao, error) {
	agora := s.clock.Agora()
	vistos := make(map[string]struct{}, n)
	lote := make([]domain.CodigoVotacao, 0, n)
	for len(lote) < n {
		valor, err := ids.NovoCodigo()
		if err != nil {
			return nil, err
		}
		if _, dup := vistos[valor]; dup {
			continue
		}
		vistos[valor] = struct{}{}
		lote = append(lote, domain.CodigoVotacao{
			ID:        ids.NewID[domain.CodigoVotacaoID](s.ids),
			Codigo:    valor,
			EleicaoID: eleicaoID,
			CriadoEm:  agora,
		})
	}
	return lote, nil
}

func (s *Service) ListarCodigos(ctx context.Context, eleicaoID domain.EleicaoID) ([]domain.CodigoVotacao, error) {
	if _, err := s.BuscarEleicao(ctx, eleicaoID); err != nil {
		return nil, err
	}
	return s.codigos.ListByEleicao(ctx, eleicaoID)
}

// RemoverCodigo só apaga códigos nunca usados; um código resgatado é evidência dos votos gravados.
func (s *Service) RemoverCodigo(ctx context.Context, id domain.CodigoVotacaoID) error {
	err := s.codigos.DeleteNaoUsado(ctx, id)
	switch {
	case err == nil:
		s.logger.Info("codigo removido", "codigo_id", id)
		return nil
	case errors.Is(err, domain.ErrCodigoUtilizado):
		return ErrCodigoUsadoNaoRemovivel
	case errors.Is(err, domain.ErrNotFound):
		return ErrCodigoInexistente
	default:
		return err
	}
}

// VerificarCodigo não tem efeitos colaterais: nil quando o código pode ser resgatado.
func (s *Service) VerificarCodigo(ctx context.Context, id domain.CodigoVotacaoID) error {
	c, err := s.codigos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrCodigoInexistente
		}
		return err
	}
	return usavel(c)
}

// VerificarCodigoPorValor resolve o código digitado pelo eleitor e aplica a mesma verificação.
func (s *Service) VerificarCodigoPorValor(ctx context.Context, valor string) (domain.CodigoVotacao, error) {
	valor = normalizarCodigo(valor)
	if valor == "" {
		return domain.CodigoVotacao{}, ErrCodigoInexistente
	}
	c, err := s.codigos.FindByCodigo(ctx, valor)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CodigoVotacao{}, ErrCodigoInexistente
		}
		return domain.CodigoVotacao{}, err
	}
	if err := usavel(c); err != nil {
		return domain.CodigoVotacao{}, err
	}
	return c, nil
}

// codigoDaSessao trata como inexistente um código que pertence a outra eleição.
func (s *Service) codigoDaSessao(ctx context.Context, sessao domain.Sessao) (domain.CodigoVotacao, error) {
	c, err := s.codigos.FindByID(ctx, sessao.CodigoVotacaoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CodigoVotacao{}, ErrCodigoInexistente
		}
		return domain.CodigoVotacao{}, err
	}
	if c.EleicaoID != sessao.EleicaoID {
		return domain.CodigoVotacao{}, ErrCodigoInexistente
	}
	if err := usavel(c); err != nil {
		return domain.CodigoVotacao{}, err
	}
	return c, nil
}

func usavel(c domain.CodigoVotacao) error {
	if c.Usado {
		return ErrCodigoUsado
	}
	return nil
}

// normalizarCodigo aceita minúsculas, espaços e hífens digitados pelo aluno.
func normalizarCodigo(valor string) string {
	valor = strings.ToUpper(strings.TrimSpace(valor))
	return strings.NewReplacer("-", "", " ", "").Replace(valor)
}
