package voting

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

// memStore faz o papel do Postgres: repositórios e a transação de resgate. O mutex lock
// serializa transações inteiras, como o FOR UPDATE faria para um mesmo código.
type memStore struct {
	mu       sync.Mutex
	lock     sync.Mutex
	eleicoes map[domain.EleicaoID]domain.Eleicao
	codigos  map[domain.CodigoVotacaoID]domain.CodigoVotacao
	votos    []domain.Voto

	aoAbrirTx      func(*memStore)
	falharVotoEm   int
	erroBloqueio   error
	marcarNada     bool
	leiturasCedula int
}

func newMemStore() *memStore {
	return &memStore{
		eleicoes: map[domain.EleicaoID]domain.Eleicao{},
		codigos:  map[domain.CodigoVotacaoID]domain.CodigoVotacao{},
	}
}

func (m *memStore) Create(_ context.Context, e domain.Eleicao) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.eleicoes[e.ID]; ok {
		return domain.ErrConflito
	}
	m.eleicoes[e.ID] = e
	return nil
}

func (m *memStore) FindByID(_ context.Context, id domain.EleicaoID) (domain.Eleicao, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.eleicoes[id]
	if !ok {
		return domain.Eleicao{}, domain.ErrNotFound
	}
	e.Cargos = ordenarCargos(e.Cargos)
	return e, nil
}

func (m *memStore) Status(_ context.Context, id domain.EleicaoID) (domain.StatusEleicao, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked(id)
}

func (m *memStore) statusLocked(id domain.EleicaoID) (domain.StatusEleicao, error) {
	e, ok := m.eleicoes[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return e.Status, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id domain.EleicaoID, status domain.StatusEleicao, em time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.eleicoes[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	e.AtualizadoEm = em
	m.eleicoes[id] = e
	return nil
}

func (m *memStore) ListByStatus(_ context.Context, status ...domain.StatusEleicao) ([]domain.Eleicao, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Eleicao
	for _, e := range m.eleicoes {
		if slices.Contains(status, e.Status) {
			e.Cargos = nil
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) setStatus(id domain.EleicaoID, status domain.StatusEleicao) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.eleicoes[id]
	e.Status = status
	m.eleicoes[id] = e
}

func (m *memStore) CarregarCedula(_ context.Context, id domain.EleicaoID) ([]domain.Cargo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leiturasCedula++
	e, ok := m.eleicoes[id]
	if !ok {
		return []domain.Cargo{}, nil
	}
	return ordenarCargos(e.Cargos), nil
}

func (m *memStore) BulkCreate(_ context.Context, codigos []domain.CodigoVotacao) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range codigos {
		for _, existente := range m.codigos {
			if existente.Codigo == c.Codigo {
				return fmt.Errorf("%w: codigo %s", domain.ErrConflito, c.Codigo)
			}
		}
	}
	for _, c := range codigos {
		m.codigos[c.ID] = c
	}
	return nil
}

func (m *memStore) FindByIDCodigo(id domain.CodigoVotacaoID) (domain.CodigoVotacao, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codigos[id]
	return c, ok
}

// codigosMem separa o FindByID de códigos do FindByID de eleições.
type codigosMem struct{ *memStore }

func (c codigosMem) FindByID(_ context.Context, id domain.CodigoVotacaoID) (domain.CodigoVotacao, error) {
	cod, ok := c.FindByIDCodigo(id)
	if !ok {
		return domain.CodigoVotacao{}, domain.ErrNotFound
	}
	return cod, nil
}

func (m *memStore) FindByCodigo(_ context.Context, valor string) (domain.CodigoVotacao, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codigos {
		if c.Codigo == valor {
			return c, nil
		}
	}
	return domain.CodigoVotacao{}, domain.ErrNotFound
}

func (m *memStore) ListByEleicao(_ context.Context, id domain.EleicaoID) ([]domain.CodigoVotacao, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CodigoVotacao
	for _, c := range m.codigos {
		if c.EleicaoID == id {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) DeleteNaoUsado(_ context.Context, id domain.CodigoVotacaoID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codigos[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Usado {
		return domain.ErrCodigoUtilizado
	}
	delete(m.codigos, id)
	return nil
}

func (m *memStore) TotalCedulas(_ context.Context, id domain.EleicaoID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, c := range m.codigos {
		if c.EleicaoID == id && c.Usado {
			total++
		}
	}
	return total, nil
}

func (m *memStore) TotalPorCandidato(_ context.Context, id domain.EleicaoID) (map[domain.CandidatoID]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totais := map[domain.CandidatoID]int64{}
	for _, v := range m.votos {
		if v.EleicaoID == id {
			totais[v.CandidatoID]++
		}
	}
	return totais, nil
}

func (m *memStore) TotalPorHora(_ context.Context, id domain.EleicaoID) ([]domain.ParcialHora, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	porHora := map[time.Time]int64{}
	for _, c := range m.codigos {
		if c.EleicaoID != id || !c.Usado || c.UsadoEm == nil {
			continue
		}
		porHora[c.UsadoEm.Truncate(time.Hour)]++
	}
	var out []domain.ParcialHora
	for hora, total := range porHora {
		out = append(out, domain.ParcialHora{EleicaoID: id, Hora: hora, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hora.Before(out[j].Hora) })
	return out, nil
}

func (m *memStore) votosDoCodigo(id domain.CodigoVotacaoID) []domain.Voto {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Voto
	for _, v := range m.votos {
		if v.CodigoVotacaoID == id {
			out = append(out, v)
		}
	}
	return out
}

func (m *memStore) Resgatar(_ context.Context, fn func(domain.TxResgate) error) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.aoAbrirTx != nil {
		m.aoAbrirTx(m)
	}

	tx := &memTx{store: m, codigos: map[domain.CodigoVotacaoID]domain.CodigoVotacao{}}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range tx.codigos {
		m.codigos[id] = c
	}
	m.votos = append(m.votos, tx.votos...)
	return nil
}

// memTx acumula as alterações e só as aplica no commit.
type memTx struct {
	store    *memStore
	codigos  map[domain.CodigoVotacaoID]domain.CodigoVotacao
	votos    []domain.Voto
	gravados int
}

func (t *memTx) StatusEleicao(_ context.Context, id domain.EleicaoID) (domain.StatusEleicao, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.statusLocked(id)
}

func (t *memTx) atual(id domain.CodigoVotacaoID) (domain.CodigoVotacao, bool) {
	if c, ok := t.codigos[id]; ok {
		return c, true
	}
	return t.store.FindByIDCodigo(id)
}

func (t *memTx) BloquearCodigo(_ context.Context, id domain.CodigoVotacaoID) (domain.CodigoVotacao, error) {
	if t.store.erroBloqueio != nil {
		return domain.CodigoVotacao{}, t.store.erroBloqueio
	}
	c, ok := t.atual(id)
	if !ok {
		return domain.CodigoVotacao{}, domain.ErrNotFound
	}
	return c, nil
}

func (t *memTx) MarcarUsado(_ context.Context, id domain.CodigoVotacaoID, em time.Time) (int64, error) {
	if t.store.marcarNada {
		return 0, nil
	}
	c, ok := t.atual(id)
	if !ok || c.Usado {
		return 0, nil
	}
	c.Usado = true
	c.UsadoEm = &em
	t.codigos[id] = c
	return 1, nil
}

func (t *memTx) RegistrarVoto(_ context.Context, v domain.Voto) error {
	t.gravados++
	if t.store.falharVotoEm > 0 && t.gravados == t.store.falharVotoEm {
		return errors.New("conexao perdida com o banco")
	}
	mesmo := func(o domain.Voto) bool {
		return o.CodigoVotacaoID == v.CodigoVotacaoID && o.CargoID == v.CargoID
	}
	if slices.ContainsFunc(t.votos, mesmo) || len(t.store.votosDoCodigoCargo(v)) > 0 {
		return fmt.Errorf("%w: ux_votos_codigo_cargo", domain.ErrConflito)
	}
	t.votos = append(t.votos, v)
	return nil
}

func (m *memStore) votosDoCodigoCargo(v domain.Voto) []domain.Voto {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Voto
	for _, o := range m.votos {
		if o.CodigoVotacaoID == v.CodigoVotacaoID && o.CargoID == v.CargoID {
			out = append(out, o)
		}
	}
	return out
}

func ordenarCargos(cargos []domain.Cargo) []domain.Cargo {
	out := slices.Clone(cargos)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordem < out[j].Ordem })
	return out
}

type filaMemoria struct {
	mu      sync.Mutex
	cedulas []domain.CedulaRegistrada
	err     error
}

func (f *filaMemoria) PublicarCedula(_ context.Context, c domain.CedulaRegistrada) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cedulas = append(f.cedulas, c)
	return nil
}

func (f *filaMemoria) ConsumirCedulas(ctx context.Context, handler func(context.Context, domain.CedulaRegistrada) error) error {
	f.mu.Lock()
	pendentes := f.cedulas
	f.cedulas = nil
	f.mu.Unlock()
	for _, c := range pendentes {
		if err := handler(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (f *filaMemoria) publicadas() []domain.CedulaRegistrada {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.cedulas)
}

type contadorMemoria struct {
	mu      sync.Mutex
	valores map[string]int64
}

func newContadorMemoria() *contadorMemoria {
	return &contadorMemoria{valores: map[string]int64{}}
}

func (c *contadorMemoria) Incrementar(_ context.Context, chave string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valores[chave] += delta
	return c.valores[chave], nil
}

func (c *contadorMemoria) IncrementarLote(_ context.Context, deltas map[string]int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, d := range deltas {
		c.valores[k] += d
	}
	return nil
}

func (c *contadorMemoria) Obter(_ context.Context, chave string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valores[chave], nil
}

func (c *contadorMemoria) ObterTodos(_ context.Context, chaves []string) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(chaves))
	for _, k := range chaves {
		out[k] = c.valores[k]
	}
	return out, nil
}

type revogacaoMemoria struct {
	mu        sync.Mutex
	revogadas map[string]time.Duration
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
	_, ok := r.revogadas[id]
	return ok, nil
}

type emissorFake struct {
	clock domain.Clock
	n     int
}

func (e *emissorFake) Emitir(eleicaoID domain.EleicaoID, codigoID domain.CodigoVotacaoID) (string, domain.Sessao, error) {
	e.n++
	s := domain.Sessao{
		ID:              fmt.Sprintf("sessao-%d", e.n),
		EleicaoID:       eleicaoID,
		CodigoVotacaoID: codigoID,
		ExpiraEm:        e.clock.Agora().Add(30 * time.Minute),
	}
	return "token-" + s.ID, s, nil
}

type antifraudeFake struct {
	bloquear bool
	chaves   []string
}

var errBloqueado = errors.New("limite de tentativas atingido")

func (a *antifraudeFake) Validar(_ context.Context, chave string) error {
	a.chaves = append(a.chaves, chave)
	if a.bloquear {
		return errBloqueado
	}
	return nil
}
