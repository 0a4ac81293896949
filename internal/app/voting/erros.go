package voting

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

var (
	ErrEleicaoInvalida         = errors.New("eleicao invalida")
	ErrEleicaoNaoEncontrada    = errors.New("eleicao nao encontrada")
	ErrStatusInvalido          = errors.New("status de eleicao invalido")
	ErrQuantidadeInvalida      = errors.New("quantidade de codigos deve estar entre 1 e 1000")
	ErrCodigoUsadoNaoRemovivel = errors.New("codigo ja utilizado nao pode ser removido")
)

// Motivos de aborto do resgate. Todos são terminais para a tentativa atual.
var (
	ErrCodigoInexistente = errors.New("codigo de votacao inexistente")
	ErrCodigoUsado       = errors.New("codigo de votacao ja utilizado")
	ErrEleicaoInativa    = errors.New("eleicao nao esta ativa")
	ErrCedulaVazia       = errors.New("eleicao sem cargos cadastrados")
	ErrCedulaIncompleta  = errors.New("cedula incompleta")
	ErrSelecaoInvalida   = errors.New("selecao invalida para a eleicao")
	ErrCorridaPerdida    = errors.New("codigo alterado por outra transacao")
	ErrOcupado           = errors.New("codigo em processamento por outra submissao")
	ErrInterno           = errors.New("erro interno")
)

// Aborto é o resultado de um resgate que não foi confirmado. Motivo é sempre um dos sentinelas acima;
// causa guarda o erro de armazenamento original e nunca deve chegar ao eleitor.
type Aborto struct {
	Motivo error
	Cargos []domain.CargoID
	causa  error
}

func abortar(motivo error, cargos []domain.CargoID, causa error) *Aborto {
	return &Aborto{Motivo: motivo, Cargos: cargos, causa: causa}
}

func (a *Aborto) Error() string {
	var b strings.Builder
	b.WriteString("resgate abortado: ")
	b.WriteString(a.Motivo.Error())
	if len(a.Cargos) > 0 {
		fmt.Fprintf(&b, " %v", a.Cargos)
	}
	if a.causa != nil {
		b.WriteString(": ")
		b.WriteString(a.causa.Error())
	}
	return b.String()
}

func (a *Aborto) Unwrap() []error {
	if a.causa == nil {
		return []error{a.Motivo}
	}
	return []error{a.Motivo, a.causa}
}

// InvalidaSessao indica que o eleitor precisa voltar ao login.
func (a *Aborto) InvalidaSessao() bool {
	switch a.Motivo {
	case ErrCodigoInexistente, ErrCodigoUsado, ErrEleicaoInativa:
		return true
	}
	return false
}

// Retentavel indica que o mesmo eleitor pode reenviar a cédula com o mesmo código.
func (a *Aborto) Retentavel() bool {
	switch a.Motivo {
	case ErrCedulaIncompleta, ErrSelecaoInvalida, ErrOcupado:
		return true
	}
	return false
}

// CodigoMotivo devolve um identificador estável para métricas e respostas HTTP.
func CodigoMotivo(err error) string {
	if err == nil {
		return "registrado"
	}
	var ab *Aborto
	if errors.As(err, &ab) {
		err = ab.Motivo
	}
	switch {
	case errors.Is(err, ErrCodigoInexistente):
		return "codigo_inexistente"
	case errors.Is(err, ErrCodigoUsado):
		return "codigo_usado"
	case errors.Is(err, ErrEleicaoInativa):
		return "eleicao_inativa"
	case errors.Is(err, ErrCedulaVazia):
		return "cedula_vazia"
	case errors.Is(err, ErrCedulaIncompleta):
		return "cedula_incompleta"
	case errors.Is(err, ErrSelecaoInvalida):
		return "selecao_invalida"
	case errors.Is(err, ErrCorridaPerdida):
		return "corrida_perdida"
	case errors.Is(err, ErrOcupado):
		return "ocupado"
	default:
		return "erro_interno"
	}
}
