package httpapi

import (
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

func (a *API) registerAdmin(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/eleicoes", a.admin(a.criarEleicao))
	mux.HandleFunc("GET /admin/eleicoes/{id}", a.admin(a.buscarEleicao))
	mux.HandleFunc("PUT /admin/eleicoes/{id}/status", a.admin(a.alterarStatus))
	mux.HandleFunc("POST /admin/eleicoes/{id}/codigos", a.admin(a.gerarCodigos))
	mux.HandleFunc("GET /admin/eleicoes/{id}/codigos", a.admin(a.listarCodigos))
	mux.HandleFunc("DELETE /admin/codigos/{id}", a.admin(a.removerCodigo))
}

type candidatoRequest struct {
	Nome    string `json:"nome" validate:"required,max=120"`
	FotoURL string `json:"foto_url" validate:"omitempty,url"`
}

type cargoRequest struct {
	Titulo     string             `json:"titulo" validate:"required,max=120"`
	Ordem      int                `json:"ordem" validate:"gte=0"`
	Candidatos []candidatoRequest `json:"candidatos" validate:"required,min=1,dive"`
}

type eleicaoRequest struct {
	Nome      string         `json:"nome" validate:"required,max=200"`
	Descricao string         `json:"descricao" validate:"max=2000"`
	Inicio    time.Time      `json:"inicio" validate:"required"`
	Fim       time.Time      `json:"fim" validate:"required,gtfield=Inicio"`
	Status    string         `json:"status" validate:"omitempty,oneof=pending active completed"`
	Cargos    []cargoRequest `json:"cargos" validate:"required,min=1,dive"`
}

func (req eleicaoRequest) eleicao() domain.Eleicao {
	return domain.Eleicao{
		Nome:      req.Nome,
		Descricao: req.Descricao,
		Inicio:    req.Inicio.UTC(),
		Fim:       req.Fim.UTC(),
		Status:    domain.StatusEleicao(req.Status),
		Cargos: lo.Map(req.Cargos, func(c cargoRequest, _ int) domain.Cargo {
			return domain.Cargo{
				Titulo: c.Titulo,
				Ordem:  c.Ordem,
				Candidatos: lo.Map(c.Candidatos, func(cand candidatoRequest, _ int) domain.Candidato {
					return domain.Candidato{Nome: cand.Nome, FotoURL: cand.FotoURL}
				}),
			}
		}),
	}
}

func (a *API) criarEleicao(w http.ResponseWriter, r *http.Request) {
	var req eleicaoRequest
	if !a.decodificar(w, r, &req) {
		return
	}

	eleicao, err := a.service.CriarEleicao(r.Context(), req.eleicao())
	if err != nil {
		a.logger.Warn("falha ao criar eleicao", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, eleicao)
}

func (a *API) buscarEleicao(w http.ResponseWriter, r *http.Request) {
	eleicao, err := a.service.BuscarEleicao(r.Context(), domain.EleicaoID(r.PathValue("id")))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, eleicao)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active completed"`
}

func (a *API) alterarStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !a.decodificar(w, r, &req) {
		return
	}

	id := domain.EleicaoID(r.PathValue("id"))
	if err := a.service.AlterarStatus(r.Context(), id, domain.StatusEleicao(req.Status)); err != nil {
		a.logger.Warn("falha ao alterar status", "eleicao", id, "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, map[string]string{"eleicao_id": string(id), "status": req.Status})
}

type gerarCodigosRequest struct {
	Quantidade int `json:"quantidade" validate:"required,min=1,max=1000"`
}

func (a *API) gerarCodigos(w http.ResponseWriter, r *http.Request) {
	var req gerarCodigosRequest
	if !a.decodificar(w, r, &req) {
		return
	}

	id := domain.EleicaoID(r.PathValue("id"))
	codigos, err := a.service.GerarCodigos(r.Context(), id, req.Quantidade)
	if err != nil {
		a.logger.Error("falha ao gerar codigos", "eleicao", id, "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, codigos)
}

func (a *API) listarCodigos(w http.ResponseWriter, r *http.Request) {
	codigos, err := a.service.ListarCodigos(r.Context(), domain.EleicaoID(r.PathValue("id")))
	if err != nil {
		responderErro(w, err)
		return
	}
	if codigos == nil {
		codigos = []domain.CodigoVotacao{}
	}
	responderJSON(w, http.StatusOK, codigos)
}

func (a *API) removerCodigo(w http.ResponseWriter, r *http.Request) {
	id := domain.CodigoVotacaoID(r.PathValue("id"))
	if err := a.service.RemoverCodigo(r.Context(), id); err != nil {
		responderErro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
