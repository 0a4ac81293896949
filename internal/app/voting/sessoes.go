package voting

import (
	"context"
	"errors"
	"time"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
	"github.com/marcelojr/eleicao-escolar/internal/platform/metrics"
)

// Entrar troca o código digitado por uma sessão assinada. origem é a chave do rate limit (IP do cliente).
func (s *Service) Entrar(ctx context.Context, codigo, origem string) (string, domain.Sessao, error) {
	if s.antifraude != nil {
		if err := s.antifraude.Validar(ctx, origem); err != nil {
			metrics.ObserveLogin("bloqueado")
			return "", domain.Sessao{}, err
		}
	}

	c, err := s.VerificarCodigoPorValor(ctx, codigo)
	if err != nil {
		metrics.ObserveLogin(CodigoMotivo(err))
		return "", domain.Sessao{}, err
	}
	if err := s.VerificarEleicaoAtiva(ctx, c.EleicaoID); err != nil {
		metrics.ObserveLogin(CodigoMotivo(err))
		return "", domain.Sessao{}, err
	}

	token, sessao, err := s.sessoes.Emitir(c.EleicaoID, c.ID)
	if err != nil {
		metrics.ObserveLogin("erro_interno")
		return "", domain.Sessao{}, err
	}

	metrics.ObserveLogin("ok")
	s.logger.Info("sessao de eleitor aberta", "eleicao_id", c.EleicaoID, "sessao_id", sessao.ID)
	return token, sessao, nil
}

// Sair encerra a sessão antes de expirar.
func (s *Service) Sair(ctx context.Context, sessao domain.Sessao) error {
	return s.revogarSessao(ctx, sessao)
}

func (s *Service) revogarSessao(ctx context.Context, sessao domain.Sessao) error {
	if s.revogacao == nil || sessao.ID == "" {
		return nil
	}
	ttl := sessao.ExpiraEm.Sub(s.clock.Agora())
	if ttl <= 0 {
		return nil
	}
	// A revogação não pode expirar antes do token.
	ttl = ttl.Truncate(time.Second) + time.Second
	if err := s.revogacao.Revogar(ctx, sessao.ID, ttl); err != nil {
		return err
	}
	return nil
}

func (s *Service) revogarSemFalhar(ctx context.Context, sessao domain.Sessao) {
	if err := s.revogarSessao(context.WithoutCancel(ctx), sessao); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("falha ao revogar sessao", "sessao_id", sessao.ID, "error", err)
	}
}
