package sessao

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/eleicao-escolar/internal/platform/clock"
)

var segredo = []byte("segredo-de-teste-com-mais-de-32-caracteres")

type revogacaoMemoria struct {
	mu        sync.Mutex
	revogadas map[string]time.Duration
	err       error
}

func (r *revogacaoMemoria) Revogar(_ context.Context, id string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revogadas == nil {
		r.revogadas = map[string]time.Duration{}
	}
	r.revogadas[id] = ttl
	return nil
}

func (r *revogacaoMemoria) Revogada(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revogadas[id]
	return ok, nil
}

func TestGerenciador_EmitirEVerificar_DeveRecuperarSessao(t *testing.T) {
	relogio := clock.NewFixo(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	g := NewGerenciador(segredo, 30*time.Minute, &revogacaoMemoria{}, relogio)

	token, emitida, err := g.Emitir("E1", "C1")
	require.NoError(t, err)

	sessao, err := g.Verificar(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, emitida.ID, sessao.ID)
	assert.NotEmpty(t, sessao.ID)
	assert.Equal(t, "E1", string(sessao.EleicaoID))
	assert.Equal(t, "C1", string(sessao.CodigoVotacaoID))
	assert.True(t, sessao.ExpiraEm.Equal(relogio.Agora().Add(30*time.Minute)))
}

func TestGerenciador_Verificar_QuandoExpirado_DeveRetornarSessaoInvalida(t *testing.T) {
	relogio := clock.NewFixo(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	g := NewGerenciador(segredo, 10*time.Minute, nil, relogio)

	token, _, err := g.Emitir("E1", "C1")
	require.NoError(t, err)

	relogio.Avancar(11 * time.Minute)
	_, err = g.Verificar(context.Background(), token)

	assert.ErrorIs(t, err, ErrSessaoInvalida)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestGerenciador_Verificar_QuandoAssinadoComOutroSegredo_DeveRetornarSessaoInvalida(t *testing.T) {
	relogio := clock.NewFixo(time.Now())
	outro := NewGerenciador([]byte("outro-segredo-bem-comprido-para-teste!"), time.Hour, nil, relogio)
	g := NewGerenciador(segredo, time.Hour, nil, relogio)

	token, _, err := outro.Emitir("E1", "C1")
	require.NoError(t, err)

	_, err = g.Verificar(context.Background(), token)

	assert.ErrorIs(t, err, ErrSessaoInvalida)
}

func TestGerenciador_Verificar_QuandoAlgoritmoNone_DeveRejeitar(t *testing.T) {
	g := NewGerenciador(segredo, time.Hour, nil, clock.NewFixo(time.Now()))
	c := claims{
		EleicaoID:        "E1",
		CodigoID:         "C1",
		RegisteredClaims: jwt.RegisteredClaims{ID: "x", Issuer: emissor, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = g.Verificar(context.Background(), token)

	assert.ErrorIs(t, err, ErrSessaoInvalida)
}

func TestGerenciador_Verificar_QuandoLixo_DeveRetornarSessaoInvalida(t *testing.T) {
	g := NewGerenciador(segredo, time.Hour, nil, clock.NewFixo(time.Now()))

	_, err := g.Verificar(context.Background(), "nao.e.jwt")

	assert.ErrorIs(t, err, ErrSessaoInvalida)
}

func TestGerenciador_Verificar_QuandoRevogada_DeveRetornarSessaoRevogada(t *testing.T) {
	rev := &revogacaoMemoria{}
	g := NewGerenciador(segredo, time.Hour, rev, clock.NewFixo(time.Now()))

	token, sessao, err := g.Emitir("E1", "C1")
	require.NoError(t, err)
	require.NoError(t, rev.Revogar(context.Background(), sessao.ID, time.Hour))

	_, err = g.Verificar(context.Background(), token)

	assert.ErrorIs(t, err, ErrSessaoRevogada)
}

func TestGerenciador_Verificar_QuandoRevogacaoIndisponivel_DevePropagarErro(t *testing.T) {
	falha := errors.New("redis fora")
	g := NewGerenciador(segredo, time.Hour, &revogacaoMemoria{err: falha}, clock.NewFixo(time.Now()))

	token, _, err := g.Emitir("E1", "C1")
	require.NoError(t, err)

	_, err = g.Verificar(context.Background(), token)

	assert.ErrorIs(t, err, falha)
	assert.NotErrorIs(t, err, ErrSessaoInvalida)
}
