// Pacote ids gera identificadores ULID ordenáveis e os códigos de votação entregues aos alunos.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produz ULIDs estritamente crescentes mesmo dentro do mesmo milissegundo.
type Generator struct {
	mu      sync.Mutex
	agora   func() time.Time
	entropy *ulid.MonotonicEntropy
}

type Opcao func(*Generator)

// ComRelogio fixa a fonte de tempo do timestamp embutido no ULID.
func ComRelogio(agora func() time.Time) Opcao {
	return func(g *Generator) { g.agora = agora }
}

func NewGenerator(opcoes ...Opcao) *Generator {
	g := &Generator{
		agora:   time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, opcao := range opcoes {
		opcao(g)
	}
	return g
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.agora().UTC()), g.entropy).String()
}

// NewID converte o ULID para o tipo de identificador do domínio.
func NewID[T ~string](g *Generator) T {
	return T(g.New())
}

// Momento devolve o instante codificado no identificador.
func Momento(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}

var (
	padraoOnce sync.Once
	padrao     *Generator
)

func DefaultGenerator() *Generator {
	padraoOnce.Do(func() {
		padrao = NewGenerator()
	})
	return padrao
}
