// Pacote voting implementa as regras da eleição escolar: montagem da cédula, login com código,
// resgate do código com gravação dos votos e leitura dos resultados.
package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
	"github.com/marcelojr/eleicao-escolar/internal/platform/ids"
	"github.com/marcelojr/eleicao-escolar/internal/platform/metrics"
)

// PoliticaSelecao define o que fazer com pares cargo/candidato que não pertencem à eleição.
type PoliticaSelecao int

const (
	// IgnorarInvalidas descarta o par, registra em log e ainda consome o código.
	IgnorarInvalidas PoliticaSelecao = iota
	// RejeitarInvalidas aborta antes de abrir a transação; o código continua livre.
	RejeitarInvalidas
)

// EmissorSessao assina a sessão do eleitor depois do login.
type EmissorSessao interface {
	Emitir(eleicaoID domain.EleicaoID, codigoID domain.CodigoVotacaoID) (string, domain.Sessao, error)
}

type invalidadorCedula interface {
	Invalidar(ctx context.Context, eleicaoID domain.EleicaoID) error
}

// Dependencias agrupa as portas usadas pelo Service. Contador, Fila, Antifraude e Revogacao são opcionais.
type Dependencias struct {
	Eleicoes   domain.EleicaoRepository
	Cedulas    domain.CarregadorCedula
	Codigos    domain.CodigoRepository
	Votos      domain.VotoRepository
	Transacoes domain.Transacionador
	Contador   domain.Contador
	Fila       domain.Fila
	Antifraude domain.Antifraude
	Sessoes    EmissorSessao
	Revogacao  domain.RevogacaoSessao
	Clock      domain.Clock
	IDs        *ids.Generator
}

type Opcao func(*Service)

func ComPolitica(p PoliticaSelecao) Opcao {
	return func(s *Service) { s.politica = p }
}

func ComLogger(l *slog.Logger) Opcao {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service concentra as regras de negócio e delega acesso a repositórios, fila e contadores.
type Service struct {
	eleicoes   domain.EleicaoRepository
	cedulas    domain.CarregadorCedula
	codigos    domain.CodigoRepository
	votos      domain.VotoRepository
	transacoes domain.Transacionador
	contador   domain.Contador
	fila       domain.Fila
	antifraude domain.Antifraude
	sessoes    EmissorSessao
	revogacao  domain.RevogacaoSessao
	clock      domain.Clock
	ids        *ids.Generator
	politica   PoliticaSelecao
	logger     *slog.Logger
}

func NewService(d Dependencias, opcoes ...Opcao) *Service {
	switch {
	case d.IDs != nil:
	case d.Clock != nil:
		d.IDs = ids.NewGenerator(ids.ComRelogio(d.Clock.Agora))
	default:
		d.IDs = ids.DefaultGenerator()
	}
	s := &Service{
		eleicoes:   d.Eleicoes,
		cedulas:    d.Cedulas,
		codigos:    d.Codigos,
		votos:      d.Votos,
		transacoes: d.Transacoes,
		contador:   d.Contador,
		fila:       d.Fila,
		antifraude: d.Antifraude,
		sessoes:    d.Sessoes,
		revogacao:  d.Revogacao,
		clock:      d.Clock,
		ids:        d.IDs,
		politica:   IgnorarInvalidas,
		logger:     slog.Default(),
	}
	for _, opt := range opcoes {
		opt(s)
	}
	return s
}

// CriarEleicao valida e grava a eleição com cargos e candidatos de uma vez.
func (s *Service) CriarEleicao(ctx context.Context, e domain.Eleicao) (domain.Eleicao, error) {
	if err := validarEleicao(e); err != nil {
		return domain.Eleicao{}, err
	}
	agora := s.clock.Agora()

	e.ID = ids.NewID[domain.EleicaoID](s.ids)
	if e.Status == "" {
		e.Status = domain.StatusPendente
	}
	e.CriadoEm = agora
	e.AtualizadoEm = agora

	for i := range e.Cargos {
		cargo := &e.Cargos[i]
		cargo.ID = ids.NewID[domain.CargoID](s.ids)
		cargo.EleicaoID = e.ID
		cargo.Titulo = strings.TrimSpace(cargo.Titulo)
		if cargo.Ordem == 0 {
			cargo.Ordem = i + 1
		}
		for j := range cargo.Candidatos {
			cand := &cargo.Candidatos[j]
			cand.ID = ids.NewID[domain.CandidatoID](s.ids)
			cand.CargoID = cargo.ID
			cand.Nome = strings.TrimSpace(cand.Nome)
		}
	}

	if err := s.eleicoes.Create(ctx, e); err != nil {
		return domain.Eleicao{}, err
	}

	s.logger.Info("eleicao criada", "eleicao_id", e.ID, "cargos", len(e.Cargos), "status", e.Status)
	return e, nil
}

func (s *Service) BuscarEleicao(ctx context.Context, id domain.EleicaoID) (domain.Eleicao, error) {
	e, err := s.eleicoes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Eleicao{}, ErrEleicaoNaoEncontrada
		}
		return domain.Eleicao{}, err
	}
	return e, nil
}

// AlterarStatus é a troca manual feita pelo administrador; a votação só confia no valor gravado.
func (s *Service) AlterarStatus(ctx context.Context, id domain.EleicaoID, status domain.StatusEleicao) error {
	if !status.Valido() {
		return fmt.Errorf("%w: %q", ErrStatusInvalido, status)
	}
	if err := s.eleicoes.UpdateStatus(ctx, id, status, s.clock.Agora()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrEleicaoNaoEncontrada
		}
		return err
	}

	s.logger.Info("status de eleicao alterado", "eleicao_id", id, "status", status)
	if status == domain.StatusEncerrada {
		s.descartarCedula(ctx, id)
	}
	return nil
}

// SincronizarStatus aplica a janela de datas: pending vira active em [inicio, fim) e qualquer
// eleição não encerrada vira completed a partir de fim. Devolve quantas eleições mudaram.
func (s *Service) SincronizarStatus(ctx context.Context) (int, error) {
	eleicoes, err := s.eleicoes.ListByStatus(ctx, domain.StatusPendente, domain.StatusAtiva)
	if err != nil {
		return 0, err
	}

	agora := s.clock.Agora()
	alteradas := 0
	for _, e := range eleicoes {
		alvo := statusPelaJanela(e, agora)
		if alvo == e.Status {
			continue
		}
		if err := s.eleicoes.UpdateStatus(ctx, e.ID, alvo, agora); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return alteradas, err
		}
		alteradas++
		s.logger.Info("status de eleicao sincronizado", "eleicao_id", e.ID, "de", e.Status, "para", alvo)
		if alvo == domain.StatusEncerrada {
			s.descartarCedula(ctx, e.ID)
		}
	}

	metrics.AddStatusAlterados(alteradas)
	return alteradas, nil
}

// VerificarEleicaoAtiva lê apenas o status gravado; nunca compara datas.
func (s *Service) VerificarEleicaoAtiva(ctx context.Context, id domain.EleicaoID) error {
	status, err := s.eleicoes.Status(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrEleicaoNaoEncontrada
		}
		return err
	}
	if status != domain.StatusAtiva {
		return ErrEleicaoInativa
	}
	return nil
}

// Cedula devolve os cargos da eleição da sessão, revalidando código e eleição a cada chamada.
func (s *Service) Cedula(ctx context.Context, sessao domain.Sessao) ([]domain.Cargo, error) {
	if err := s.VerificarEleicaoAtiva(ctx, sessao.EleicaoID); err != nil {
		return nil, err
	}
	if _, err := s.codigoDaSessao(ctx, sessao); err != nil {
		return nil, err
	}

	cargos, err := s.cedulas.CarregarCedula(ctx, sessao.EleicaoID)
	if err != nil {
		return nil, err
	}
	if len(cargos) == 0 {
		return nil, ErrCedulaVazia
	}
	return cargos, nil
}

func (s *Service) descartarCedula(ctx context.Context, id domain.EleicaoID) {
	inv, ok := s.cedulas.(invalidadorCedula)
	if !ok {
		return
	}
	if err := inv.Invalidar(ctx, id); err != nil {
		s.logger.Warn("falha ao descartar cedula em cache", "eleicao_id", id, "error", err)
	}
}

func statusPelaJanela(e domain.Eleicao, agora time.Time) domain.StatusEleicao {
	switch {
	case !agora.Before(e.Fim):
		return domain.StatusEncerrada
	case e.Status == domain.StatusPendente && !agora.Before(e.Inicio):
		return domain.StatusAtiva
	default:
		return e.Status
	}
}

func validarEleicao(e domain.Eleicao) error {
	if strings.TrimSpace(e.Nome) == "" {
		return fmt.Errorf("%w: nome obrigatorio", ErrEleicaoInvalida)
	}
	if e.Inicio.IsZero() || e.Fim.IsZero() || !e.Fim.After(e.Inicio) {
		return fmt.Errorf("%w: intervalo invalido", ErrEleicaoInvalida)
	}
	if e.Status != "" && !e.Status.Valido() {
		return fmt.Errorf("%w: %q", ErrStatusInvalido, e.Status)
	}
	if len(e.Cargos) == 0 {
		return fmt.Errorf("%w: ao menos um cargo", ErrEleicaoInvalida)
	}

	titulos := lo.Map(e.Cargos, func(c domain.Cargo, _ int) string {
		return strings.ToLower(strings.TrimSpace(c.Titulo))
	})
	if dup := lo.FindDuplicates(titulos); len(dup) > 0 {
		return fmt.Errorf("%w: cargo repetido %q", ErrEleicaoInvalida, dup[0])
	}

	for _, c := range e.Cargos {
		if strings.TrimSpace(c.Titulo) == "" {
			return fmt.Errorf("%w: cargo sem titulo", ErrEleicaoInvalida)
		}
		if len(c.Candidatos) == 0 {
			return fmt.Errorf("%w: cargo %q sem candidatos", ErrEleicaoInvalida, c.Titulo)
		}
		for _, cand := range c.Candidatos {
			if strings.TrimSpace(cand.Nome) == "" {
				return fmt.Errorf("%w: candidato sem nome em %q", ErrEleicaoInvalida, c.Titulo)
			}
		}
	}
	return nil
}
