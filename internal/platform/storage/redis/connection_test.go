package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_QuandoServidorDisponivel_DeveConectar(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), Options{Addr: mr.Addr()})

	require.NoError(t, err)
	assert.NoError(t, client.Close())
}

func TestNewClient_QuandoServidorIndisponivel_DeveFalhar(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), Options{Addr: addr})

	assert.ErrorContains(t, err, "ping falhou")
}
