package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
	"github.com/marcelojr/eleicao-escolar/internal/platform/sessao"
)

type ctxKey struct{}

func comSessao(ctx context.Context, s domain.Sessao) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func sessaoDoContexto(ctx context.Context) domain.Sessao {
	s, _ := ctx.Value(ctxKey{}).(domain.Sessao)
	return s
}

func bearer(r *http.Request) string {
	valor := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(valor, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// autenticado exige um token de eleitor válido e não revogado antes de chamar next.
func (a *API) autenticado(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearer(r)
		if token == "" {
			responderErro(w, sessao.ErrSessaoInvalida)
			return
		}
		s, err := a.sessoes.Verificar(r.Context(), token)
		if err != nil {
			a.logger.Info("sessao recusada", "path", r.URL.Path, "err", err)
			responderErro(w, err)
			return
		}
		next(w, r.WithContext(comSessao(r.Context(), s)))
	}
}

// admin protege as rotas administrativas com o ADMIN_TOKEN; sem token configurado elas ficam fechadas.
func (a *API) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.adminToken == "" {
			responderJSON(w, http.StatusForbidden, erroResponse{Erro: "administracao desabilitada"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(bearer(r)), []byte(a.adminToken)) != 1 {
			responderJSON(w, http.StatusUnauthorized, erroResponse{Erro: "token de administrador invalido"})
			return
		}
		next(w, r)
	}
}
