package httpapi

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/marcelojr/eleicao-escolar/internal/app/voting"
	"github.com/marcelojr/eleicao-escolar/internal/domain"
	"github.com/marcelojr/eleicao-escolar/internal/platform/antifraude"
	"github.com/marcelojr/eleicao-escolar/internal/platform/sessao"
)

type erroResponse struct {
	Erro         string           `json:"erro"`
	Motivo       string           `json:"motivo,omitempty"`
	Cargos       []domain.CargoID `json:"cargos,omitempty"`
	RefazerLogin bool             `json:"refazer_login,omitempty"`
	Detalhes     []string         `json:"detalhes,omitempty"`
}

// responderErro nunca devolve a mensagem de erros de armazenamento; só a dos sentinelas conhecidos.
func responderErro(w http.ResponseWriter, err error) {
	var ab *voting.Aborto
	if errors.As(err, &ab) {
		responderAborto(w, ab)
		return
	}

	var limite *antifraude.LimiteExcedido
	if errors.As(err, &limite) {
		segundos := int(math.Ceil(limite.TentarEm.Seconds()))
		if segundos < 1 {
			segundos = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(segundos))
	}

	status, mensagem := classificar(err)
	body := erroResponse{Erro: mensagem}
	if status != http.StatusInternalServerError && status != http.StatusTooManyRequests {
		body.Motivo = voting.CodigoMotivo(err)
		if body.Motivo == "erro_interno" {
			body.Motivo = ""
		}
	}
	if status == http.StatusUnauthorized {
		body.RefazerLogin = true
	}
	responderJSON(w, status, body)
}

func responderAborto(w http.ResponseWriter, ab *voting.Aborto) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(ab.Motivo, voting.ErrCedulaIncompleta), errors.Is(ab.Motivo, voting.ErrSelecaoInvalida):
		status = http.StatusBadRequest
	case errors.Is(ab.Motivo, voting.ErrCodigoUsado),
		errors.Is(ab.Motivo, voting.ErrCodigoInexistente),
		errors.Is(ab.Motivo, voting.ErrEleicaoInativa),
		errors.Is(ab.Motivo, voting.ErrCedulaVazia),
		errors.Is(ab.Motivo, voting.ErrCorridaPerdida):
		status = http.StatusConflict
	case errors.Is(ab.Motivo, voting.ErrOcupado):
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	}

	responderJSON(w, status, erroResponse{
		Erro:         ab.Motivo.Error(),
		Motivo:       voting.CodigoMotivo(ab),
		Cargos:       ab.Cargos,
		RefazerLogin: ab.InvalidaSessao(),
	})
}

func classificar(err error) (int, string) {
	conhecidos := []struct {
		alvo   error
		status int
	}{
		{voting.ErrEleicaoInvalida, http.StatusBadRequest},
		{voting.ErrStatusInvalido, http.StatusBadRequest},
		{voting.ErrQuantidadeInvalida, http.StatusBadRequest},
		{voting.ErrEleicaoNaoEncontrada, http.StatusNotFound},
		{voting.ErrCodigoInexistente, http.StatusNotFound},
		{voting.ErrCodigoUsado, http.StatusConflict},
		{voting.ErrCodigoUsadoNaoRemovivel, http.StatusConflict},
		{voting.ErrEleicaoInativa, http.StatusConflict},
		{voting.ErrCedulaVazia, http.StatusConflict},
		{sessao.ErrSessaoInvalida, http.StatusUnauthorized},
		{sessao.ErrSessaoRevogada, http.StatusUnauthorized},
		{antifraude.ErrLimiteExcedido, http.StatusTooManyRequests},
	}
	for _, c := range conhecidos {
		if errors.Is(err, c.alvo) {
			return c.status, mensagemPublica(err, c.alvo)
		}
	}
	return http.StatusInternalServerError, voting.ErrInterno.Error()
}

// mensagemPublica mantém o detalhe de validação ("nome obrigatorio") mas corta o que não é nosso.
func mensagemPublica(err, alvo error) string {
	switch alvo {
	case voting.ErrEleicaoInvalida, voting.ErrStatusInvalido, antifraude.ErrLimiteExcedido:
		return err.Error()
	}
	return alvo.Error()
}

func detalhesValidacao(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	detalhes := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		detalhes = append(detalhes, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return detalhes
}
