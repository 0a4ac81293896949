// Pacote sessao emite e verifica o token do eleitor: um JWT HS256 curto com eleição e código de votação.
package sessao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

const emissor = "eleicao-escolar"

var (
	ErrSessaoInvalida = errors.New("sessao invalida")
	ErrSessaoRevogada = errors.New("sessao encerrada")
)

type claims struct {
	EleicaoID string `json:"eleicao_id"`
	CodigoID  string `json:"codigo_id"`
	jwt.RegisteredClaims
}

// Gerenciador assina tokens e, na verificação, consulta a lista de revogação.
type Gerenciador struct {
	segredo   []byte
	ttl       time.Duration
	revogacao domain.RevogacaoSessao
	clock     domain.Clock
}

func NewGerenciador(segredo []byte, ttl time.Duration, revogacao domain.RevogacaoSessao, clock domain.Clock) *Gerenciador {
	return &Gerenciador{
		segredo:   segredo,
		ttl:       ttl,
		revogacao: revogacao,
		clock:     clock,
	}
}

func (g *Gerenciador) Emitir(eleicaoID domain.EleicaoID, codigoID domain.CodigoVotacaoID) (string, domain.Sessao, error) {
	agora := g.clock.Agora()
	c := claims{
		EleicaoID: string(eleicaoID),
		CodigoID:  string(codigoID),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    emissor,
			IssuedAt:  jwt.NewNumericDate(agora),
			ExpiresAt: jwt.NewNumericDate(agora.Add(g.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(g.segredo)
	if err != nil {
		return "", domain.Sessao{}, fmt.Errorf("sessao: assinar: %w", err)
	}
	return token, c.sessao(), nil
}

// Verificar devolve ErrSessaoInvalida para token malformado, adulterado ou expirado e
// ErrSessaoRevogada quando o jti consta na lista de revogação.
func (g *Gerenciador) Verificar(ctx context.Context, token string) (domain.Sessao, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return g.segredo, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(emissor),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.clock.Agora),
	)
	if err != nil {
		return domain.Sessao{}, fmt.Errorf("%w: %w", ErrSessaoInvalida, err)
	}
	if c.ID == "" || c.EleicaoID == "" || c.CodigoID == "" {
		return domain.Sessao{}, ErrSessaoInvalida
	}

	if g.revogacao != nil {
		revogada, err := g.revogacao.Revogada(ctx, c.ID)
		if err != nil {
			return domain.Sessao{}, fmt.Errorf("sessao: consultar revogacao: %w", err)
		}
		if revogada {
			return domain.Sessao{}, ErrSessaoRevogada
		}
	}

	return c.sessao(), nil
}

func (c claims) sessao() domain.Sessao {
	s := domain.Sessao{
		ID:              c.ID,
		EleicaoID:       domain.EleicaoID(c.EleicaoID),
		CodigoVotacaoID: domain.CodigoVotacaoID(c.CodigoID),
	}
	if c.ExpiresAt != nil {
		s.ExpiraEm = c.ExpiresAt.Time.UTC()
	}
	return s
}
