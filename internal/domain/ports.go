package domain

import (
	"context"
	"time"
)

type EleicaoRepository interface {
	Create(ctx context.Context, e Eleicao) error
	FindByID(ctx context.Context, id EleicaoID) (Eleicao, error)
	Status(ctx context.Context, id EleicaoID) (StatusEleicao, error)
	UpdateStatus(ctx context.Context, id EleicaoID, status StatusEleicao, em time.Time) error
	ListByStatus(ctx context.Context, status ...StatusEleicao) ([]Eleicao, error)
}

// CarregadorCedula devolve os cargos da eleição com seus candidatos. Somente leitura.
type CarregadorCedula interface {
	CarregarCedula(ctx context.Context, eleicaoID EleicaoID) ([]Cargo, error)
}

type CodigoRepository interface {
	BulkCreate(ctx context.Context, codigos []CodigoVotacao) error
	FindByID(ctx context.Context, id CodigoVotacaoID) (CodigoVotacao, error)
	FindByCodigo(ctx context.Context, codigo string) (CodigoVotacao, error)
	ListByEleicao(ctx context.Context, eleicaoID EleicaoID) ([]CodigoVotacao, error)
	// DeleteNaoUsado devolve ErrCodigoUtilizado quando o código já foi resgatado.
	DeleteNaoUsado(ctx context.Context, id CodigoVotacaoID) error
}

type VotoRepository interface {
	TotalCedulas(ctx context.Context, eleicaoID EleicaoID) (int64, error)
	TotalPorCandidato(ctx context.Context, eleicaoID EleicaoID) (map[CandidatoID]int64, error)
	TotalPorHora(ctx context.Context, eleicaoID EleicaoID) ([]ParcialHora, error)
}

// Transacionador abre a transação do resgate. Se fn devolver erro, tudo é desfeito.
type Transacionador interface {
	Resgatar(ctx context.Context, fn func(tx TxResgate) error) error
}

// TxResgate expõe apenas as operações permitidas dentro da transação de resgate.
type TxResgate interface {
	StatusEleicao(ctx context.Context, id EleicaoID) (StatusEleicao, error)
	// BloquearCodigo lê a linha do código com lock exclusivo (SELECT ... FOR UPDATE).
	BloquearCodigo(ctx context.Context, id CodigoVotacaoID) (CodigoVotacao, error)
	// MarcarUsado devolve quantas linhas passaram de usado=false para true.
	MarcarUsado(ctx context.Context, id CodigoVotacaoID, em time.Time) (int64, error)
	RegistrarVoto(ctx context.Context, voto Voto) error
}

type Contador interface {
	Incrementar(ctx context.Context, chave string, delta int64) (int64, error)
	Obter(ctx context.Context, chave string) (int64, error)
	ObterTodos(ctx context.Context, chaves []string) (map[string]int64, error)
	// IncrementarLote aplica todos os deltas de uma vez (MULTI/EXEC no Redis).
	IncrementarLote(ctx context.Context, deltas map[string]int64) error
}

type Fila interface {
	PublicarCedula(ctx context.Context, cedula CedulaRegistrada) error
	ConsumirCedulas(ctx context.Context, handler func(context.Context, CedulaRegistrada) error) error
}

// Antifraude limita tentativas por chave (IP de origem no login).
type Antifraude interface {
	Validar(ctx context.Context, chave string) error
}

type RevogacaoSessao interface {
	Revogar(ctx context.Context, sessaoID string, ttl time.Duration) error
	Revogada(ctx context.Context, sessaoID string) (bool, error)
}

type Clock interface {
	Agora() time.Time
}
