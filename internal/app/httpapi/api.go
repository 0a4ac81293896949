// Pacote httpapi expõe os handlers REST e traduz requisições HTTP para o serviço de votação.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// Service é o subconjunto do voting.Service usado pelos handlers.
type Service interface {
	Entrar(ctx context.Context, codigo, origem string) (string, domain.Sessao, error)
	Sair(ctx context.Context, sessao domain.Sessao) error
	Cedula(ctx context.Context, sessao domain.Sessao) ([]domain.Cargo, error)
	Resgatar(ctx context.Context, sessao domain.Sessao, selecao domain.Selecao) (domain.Resgate, error)
	Resultados(ctx context.Context, id domain.EleicaoID) (domain.Apuracao, error)
	ResultadosAoVivo(ctx context.Context, id domain.EleicaoID) (domain.Apuracao, error)
	TotaisPorHora(ctx context.Context, id domain.EleicaoID) ([]domain.ParcialHora, error)

	CriarEleicao(ctx context.Context, e domain.Eleicao) (domain.Eleicao, error)
	BuscarEleicao(ctx context.Context, id domain.EleicaoID) (domain.Eleicao, error)
	AlterarStatus(ctx context.Context, id domain.EleicaoID, status domain.StatusEleicao) error
	GerarCodigos(ctx context.Context, id domain.EleicaoID, n int) ([]domain.CodigoVotacao, error)
	ListarCodigos(ctx context.Context, id domain.EleicaoID) ([]domain.CodigoVotacao, error)
	RemoverCodigo(ctx context.Context, id domain.CodigoVotacaoID) error
}

// VerificadorSessao valida o token Bearer do eleitor (sessao.Gerenciador).
type VerificadorSessao interface {
	Verificar(ctx context.Context, token string) (domain.Sessao, error)
}

// API empacota handlers HTTP ligados ao serviço de votação e ao logger.
type API struct {
	service    Service
	sessoes    VerificadorSessao
	adminToken string
	validate   *validator.Validate
	proxies    []netip.Prefix
	logger     *slog.Logger
}

func New(service Service, sessoes VerificadorSessao, adminToken string, logger *slog.Logger, opcoes ...Opcao) *API {
	a := &API{
		service:    service,
		sessoes:    sessoes,
		adminToken: adminToken,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
	for _, opcao := range opcoes {
		opcao(a)
	}
	return a
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessoes", a.entrar)
	mux.HandleFunc("DELETE /sessoes", a.autenticado(a.sair))
	mux.HandleFunc("GET /cedula", a.autenticado(a.cedula))
	mux.HandleFunc("POST /votos", a.autenticado(a.votar))

	mux.HandleFunc("GET /eleicoes/{id}/resultados", a.resultados)
	mux.HandleFunc("GET /eleicoes/{id}/resultados/hora", a.totaisHora)
	mux.HandleFunc("GET /eleicoes/{id}/ao-vivo", a.aoVivo)

	a.registerAdmin(mux)
}

type entrarRequest struct {
	Codigo string `json:"codigo" validate:"required,max=32"`
}

type entrarResponse struct {
	Token     string           `json:"token"`
	EleicaoID domain.EleicaoID `json:"eleicao_id"`
	ExpiraEm  time.Time        `json:"expira_em"`
}

func (a *API) entrar(w http.ResponseWriter, r *http.Request) {
	var req entrarRequest
	if !a.decodificar(w, r, &req) {
		return
	}

	origem := a.origem(r)
	token, sessao, err := a.service.Entrar(r.Context(), req.Codigo, origem)
	if err != nil {
		a.logger.Warn("login recusado", "origem", origem, "err", err)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusCreated, entrarResponse{
		Token:     token,
		EleicaoID: sessao.EleicaoID,
		ExpiraEm:  sessao.ExpiraEm,
	})
}

func (a *API) sair(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Sair(r.Context(), sessaoDoContexto(r.Context())); err != nil {
		a.logger.Error("erro ao encerrar sessao", "err", err)
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) cedula(w http.ResponseWriter, r *http.Request) {
	sessao := sessaoDoContexto(r.Context())
	cargos, err := a.service.Cedula(r.Context(), sessao)
	if err != nil {
		a.logger.Warn("cedula indisponivel", "eleicao", sessao.EleicaoID, "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, map[string]any{
		"eleicao_id": sessao.EleicaoID,
		"cargos":     cargos,
	})
}

type votoRequest struct {
	Selecoes map[domain.CargoID]domain.CandidatoID `json:"selecoes" validate:"required,dive,keys,required,endkeys,required"`
}

type votoResponse struct {
	Status    string                   `json:"status"`
	Votos     int                      `json:"votos"`
	Ignorados []domain.SelecaoIgnorada `json:"ignorados"`
}

func (a *API) votar(w http.ResponseWriter, r *http.Request) {
	var req votoRequest
	if !a.decodificar(w, r, &req) {
		return
	}

	sessao := sessaoDoContexto(r.Context())
	res, err := a.service.Resgatar(r.Context(), sessao, domain.Selecao(req.Selecoes))
	if err != nil {
		responderErro(w, err)
		return
	}

	ignorados := res.Ignorados
	if ignorados == nil {
		ignorados = []domain.SelecaoIgnorada{}
	}
	responderJSON(w, http.StatusCreated, votoResponse{
		Status:    "registrado",
		Votos:     res.VotosRegistrados,
		Ignorados: ignorados,
	})
}

func (a *API) resultados(w http.ResponseWriter, r *http.Request) {
	id := domain.EleicaoID(r.PathValue("id"))
	apuracao, err := a.service.Resultados(r.Context(), id)
	if err != nil {
		a.logger.Error("erro ao apurar resultados", "err", err, "eleicao", id)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, apuracao)
}

func (a *API) aoVivo(w http.ResponseWriter, r *http.Request) {
	id := domain.EleicaoID(r.PathValue("id"))
	apuracao, err := a.service.ResultadosAoVivo(r.Context(), id)
	if err != nil {
		a.logger.Error("erro ao ler contadores", "err", err, "eleicao", id)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, apuracao)
}

func (a *API) totaisHora(w http.ResponseWriter, r *http.Request) {
	id := domain.EleicaoID(r.PathValue("id"))
	totais, err := a.service.TotaisPorHora(r.Context(), id)
	if err != nil {
		a.logger.Error("erro ao obter totais por hora", "err", err, "eleicao", id)
		responderErro(w, err)
		return
	}
	if totais == nil {
		totais = []domain.ParcialHora{}
	}
	responderJSON(w, http.StatusOK, totais)
}

// decodificar lê o JSON do corpo e roda o validator; em caso de falha já responde 400.
func (a *API) decodificar(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		a.logger.Warn("payload invalido", "path", r.URL.Path, "err", err)
		responderJSON(w, http.StatusBadRequest, erroResponse{Erro: "payload invalido"})
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		responderJSON(w, http.StatusBadRequest, erroResponse{Erro: "payload invalido", Detalhes: detalhesValidacao(err)})
		return false
	}
	return true
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
