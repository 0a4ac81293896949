package voting

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

func selecaoCompleta() domain.Selecao {
	return domain.Selecao{"P1": "A", "P2": "C"}
}

func exigirAborto(t *testing.T, err error, motivo error) *Aborto {
	t.Helper()
	var ab *Aborto
	if !errors.As(err, &ab) {
		t.Fatalf("esperava *Aborto, veio %v", err)
	}
	if !errors.Is(err, motivo) {
		t.Fatalf("esperava motivo %v, veio %v", motivo, ab.Motivo)
	}
	return ab
}

func TestResgatarRegistraUmVotoPorCargo(t *testing.T) {
	c := novoCenario(t)

	res, err := c.service.Resgatar(context.Background(), c.sessao, selecaoCompleta())
	if err != nil {
		t.Fatalf("esperava resgate sem erro, veio %v", err)
	}
	if res.VotosRegistrados != 2 || len(res.Ignorados) != 0 {
		t.Fatalf("resultado inesperado: %+v", res)
	}

	votos := c.store.votosDoCodigo("X")
	if len(votos) != 2 {
		t.Fatalf("esperava 2 votos gravados, veio %d", len(votos))
	}
	if votos[0].CargoID != "P1" || votos[0].CandidatoID != "A" || votos[1].CargoID != "P2" || votos[1].CandidatoID != "C" {
		t.Fatalf("votos gravados incorretos: %+v", votos)
	}
	for _, v := range votos {
		if v.EleicaoID != "E" || v.ID == "" || !v.CriadoEm.Equal(baseTime) {
			t.Fatalf("voto sem eleicao, id ou horario: %+v", v)
		}
	}

	cod := c.codigo(t, "X")
	if !cod.Usado || cod.UsadoEm == nil || !cod.UsadoEm.Equal(baseTime) {
		t.Fatalf("codigo deveria estar usado desde %v: %+v", baseTime, cod)
	}

	if revogada, _ := c.revogacao.Revogada(context.Background(), c.sessao.ID); !revogada {
		t.Fatal("sessao deveria ser revogada depois do resgate")
	}

	publicadas := c.fila.publicadas()
	if len(publicadas) != 1 {
		t.Fatalf("esperava 1 cedula publicada, veio %d", len(publicadas))
	}
	if len(publicadas[0].Escolhas) != 2 || publicadas[0].CodigoVotacaoID != "X" {
		t.Fatalf("evento publicado incorreto: %+v", publicadas[0])
	}
}

func TestResgatarCodigoJaUsado(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()

	if _, err := c.service.Resgatar(ctx, c.sessao, selecaoCompleta()); err != nil {
		t.Fatalf("primeiro resgate falhou: %v", err)
	}

	_, err := c.service.Resgatar(ctx, c.sessao, domain.Selecao{"P1": "B", "P2": "C"})
	ab := exigirAborto(t, err, ErrCodigoUsado)
	if !ab.InvalidaSessao() || ab.Retentavel() {
		t.Fatalf("codigo usado deve invalidar a sessao sem permitir nova tentativa: %+v", ab)
	}

	votos := c.store.votosDoCodigo("X")
	if len(votos) != 2 || votos[0].CandidatoID != "A" {
		t.Fatalf("segunda submissao nao pode alterar os votos: %+v", votos)
	}
	if len(c.fila.publicadas()) != 1 {
		t.Fatal("aborto nao pode publicar cedula")
	}
}

func TestResgatarConcorrenteConsomeUmaVez(t *testing.T) {
	c := novoCenario(t)
	const tentativas = 20

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sucessos int
		usados   int
	)
	for i := 0; i < tentativas; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			candidato := domain.CandidatoID("A")
			if i%2 == 1 {
				candidato = "B"
			}
			_, err := c.service.Resgatar(context.Background(), c.sessao, domain.Selecao{"P1": candidato, "P2": "C"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sucessos++
			case errors.Is(err, ErrCodigoUsado):
				usados++
			default:
				t.Errorf("erro inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if sucessos != 1 || usados != tentativas-1 {
		t.Fatalf("esperava 1 sucesso e %d codigo_usado, veio %d e %d", tentativas-1, sucessos, usados)
	}
	if votos := c.store.votosDoCodigo("X"); len(votos) != 2 {
		t.Fatalf("esperava exatamente 2 votos, veio %d", len(votos))
	}
}

func TestResgatarFalhaNoMeioDesfazTudo(t *testing.T) {
	c := novoCenario(t)
	c.store.falharVotoEm = 2

	_, err := c.service.Resgatar(context.Background(), c.sessao, selecaoCompleta())
	ab := exigirAborto(t, err, ErrInterno)
	if ab.InvalidaSessao() {
		t.Fatal("falha interna nao deve derrubar a sessao")
	}
	if ab.causa == nil {
		t.Fatal("causa original deveria ficar no aborto para o log")
	}

	if c.codigo(t, "X").Usado {
		t.Fatal("codigo nao pode ficar usado depois do rollback")
	}
	if votos := c.store.votosDoCodigo("X"); len(votos) != 0 {
		t.Fatalf("nenhum voto deveria sobrar, veio %d", len(votos))
	}
	if revogada, _ := c.revogacao.Revogada(context.Background(), c.sessao.ID); revogada {
		t.Fatal("sessao continua valida depois de erro interno")
	}

	c.store.falharVotoEm = 0
	if _, err := c.service.Resgatar(context.Background(), c.sessao, selecaoCompleta()); err != nil {
		t.Fatalf("nova tentativa com o mesmo codigo deveria funcionar: %v", err)
	}
}

func TestResgatarCedulaIncompleta(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()

	_, err := c.service.Resgatar(ctx, c.sessao, domain.Selecao{"P1": "A"})
	ab := exigirAborto(t, err, ErrCedulaIncompleta)
	if !slices.Equal(ab.Cargos, []domain.CargoID{"P2"}) {
		t.Fatalf("cargos faltando deveriam ser [P2], veio %v", ab.Cargos)
	}
	if !ab.Retentavel() || ab.InvalidaSessao() {
		t.Fatal("cedula incompleta permite reenviar com a mesma sessao")
	}
	if c.codigo(t, "X").Usado {
		t.Fatal("codigo nao pode ser consumido por cedula incompleta")
	}

	if _, err := c.service.Resgatar(ctx, c.sessao, selecaoCompleta()); err != nil {
		t.Fatalf("reenvio completo deveria funcionar: %v", err)
	}
}

func TestResgatarIgnoraCargoDeOutraEleicao(t *testing.T) {
	c := novoCenario(t)
	c.store.eleicoes["E2"] = domain.Eleicao{
		ID:     "E2",
		Status: domain.StatusAtiva,
		Cargos: []domain.Cargo{{ID: "P3", EleicaoID: "E2", Titulo: "Diretor", Candidatos: []domain.Candidato{{ID: "D", CargoID: "P3"}}}},
	}

	res, err := c.service.Resgatar(context.Background(), c.sessao, domain.Selecao{"P1": "A", "P2": "C", "P3": "D"})
	if err != nil {
		t.Fatalf("esperava resgate com par ignorado, veio %v", err)
	}
	if res.VotosRegistrados != 2 {
		t.Fatalf("esperava 2 votos, veio %d", res.VotosRegistrados)
	}
	if len(res.Ignorados) != 1 || res.Ignorados[0].CargoID != "P3" || res.Ignorados[0].Motivo != motivoCargoFora {
		t.Fatalf("par de outra eleicao deveria ser ignorado: %+v", res.Ignorados)
	}
	for _, v := range c.store.votosDoCodigo("X") {
		if v.CargoID == "P3" {
			t.Fatal("voto em cargo de outra eleicao nao pode ser gravado")
		}
	}
	if !c.codigo(t, "X").Usado {
		t.Fatal("codigo deveria ser consumido mesmo com par ignorado")
	}
}

func TestResgatarIgnoraCandidatoDeOutroCargo(t *testing.T) {
	c := novoCenario(t)

	res, err := c.service.Resgatar(context.Background(), c.sessao, domain.Selecao{"P1": "C", "P2": "C"})
	if err != nil {
		t.Fatalf("esperava resgate com par ignorado, veio %v", err)
	}
	if res.VotosRegistrados != 1 {
		t.Fatalf("esperava 1 voto, veio %d", res.VotosRegistrados)
	}
	if len(res.Ignorados) != 1 || res.Ignorados[0].Motivo != motivoCandidatoFora {
		t.Fatalf("candidato de outro cargo deveria ser ignorado: %+v", res.Ignorados)
	}

	publicada := c.fila.publicadas()[0]
	if len(publicada.Escolhas) != 1 || publicada.Escolhas[0].CargoID != "P2" {
		t.Fatalf("evento deveria levar apenas escolhas validas: %+v", publicada.Escolhas)
	}
}

func TestResgatarPoliticaEstrita(t *testing.T) {
	c := novoCenario(t, ComPolitica(RejeitarInvalidas))

	_, err := c.service.Resgatar(context.Background(), c.sessao, domain.Selecao{"P1": "A", "P2": "C", "P9": "Z"})
	ab := exigirAborto(t, err, ErrSelecaoInvalida)
	if !slices.Equal(ab.Cargos, []domain.CargoID{"P9"}) {
		t.Fatalf("cargo invalido deveria ser P9, veio %v", ab.Cargos)
	}
	if c.codigo(t, "X").Usado {
		t.Fatal("politica estrita nao consome o codigo")
	}
	if len(c.store.votosDoCodigo("X")) != 0 {
		t.Fatal("politica estrita nao grava votos")
	}
}

func TestResgatarEleicaoEncerrada(t *testing.T) {
	c := novoCenario(t)
	c.store.setStatus("E", domain.StatusEncerrada)

	_, err := c.service.Resgatar(context.Background(), c.sessao, selecaoCompleta())
	ab := exigirAborto(t, err, ErrEleicaoInativa)
	if !ab.InvalidaSessao() {
		t.Fatal("eleicao inativa deve devolver o eleitor ao login")
	}
	if c.codigo(t, "X").Usado {
		t.Fatal("codigo nao pode ser consumido com eleicao encerrada")
	}
	if revogada, _ := c.revogacao.Revogada(context.Background(), c.sessao.ID); !revogada {
		t.Fatal("sessao deveria ser revogada")
	}
}

func TestResgatarEleicaoEncerraDuranteTransacao(t *testing.T) {
	c := novoCenario(t)
	c.store.aoAbrirTx = func(m *memStore) { m.setStatus("E", domain.StatusEncerrada) }

	_, err := c.service.Resgatar(context.Background(), c.sessao, selecaoCompleta())
	exigirAborto(t, err, ErrEleicaoInativa)
	if c.codigo(t, "X").Usado {
		t.Fatal("codigo nao pode ser consumido depois do encerramento")
	}
	if len(c.store.votosDoCodigo("X")) != 0 {
		t.Fatal("nenhum voto deveria ser gravado")
	}
}

func TestResgatarCodigoRemovidoDuranteTransacao(t *testing.T) {
	c := novoCenario(t)
	c.store.aoAbrirTx = func(m *memStore) {
		m.mu.Lock()
		delete(m.codigos, "X")
		m.mu.Unlock()
	}

	_, err := c.service.Resgatar(context.Background(), c.sessao, selecaoCompleta())
	exigirAborto(t, err, ErrCodigoInexistente)
}

func TestResgatarCodigoDeOutraEleicao(t *testing.T) {
	c := novoCenario(t)
	c.store.eleicoes["E2"] = domain.Eleicao{ID: "E2", Status: domain.StatusAtiva}
	sessao := c.sessao
	sessao.EleicaoID = "E2"

	_, err := c.service.Resgatar(context.Background(), sessao, selecaoCompleta())
	exigirAborto(t, err, ErrCodigoInexistente)
	if c.codigo(t, "X").Usado {
		t.Fatal("codigo de outra eleicao nao pode ser consumido")
	}
}

func TestResgatarCodigoInexistente(t *testing.T) {
	c := novoCenario(t)
	sessao := c.sessao
	sessao.CodigoVotacaoID = "NAO-EXISTE"

	_, err := c.service.Resgatar(context.Background(), sessao, selecaoCompleta())
	exigirAborto(t, err, ErrCodigoInexistente)
}

func TestResgatarCedulaVazia(t *testing.T) {
	c := novoCenario(t)
	e := c.store.eleicoes["E"]
	e.Cargos = nil
	c.store.eleicoes["E"] = e

	_, err := c.service.Resgatar(context.Background(), c.sessao, domain.Selecao{})
	exigirAborto(t, err, ErrCedulaVazia)
	if c.codigo(t, "X").Usado {
		t.Fatal("eleicao sem cargos nao consome codigo")
	}
}

func TestResgatarLockTimeout(t *testing.T) {
	c := novoCenario(t)
	c.store.erroBloqueio = domain.ErrLockTimeout

	_, err := c.service.Resgatar(context.Background(), c.sessao, selecaoCompleta())
	ab := exigirAborto(t, err, ErrOcupado)
	if !ab.Retentavel() {
		t.Fatal("lock ocupado deve permitir nova tentativa")
	}
	if !errors.Is(err, domain.ErrLockTimeout) {
		t.Fatal("causa do aborto deveria ser o timeout do lock")
	}
}

func TestResgatarCorridaPerdida(t *testing.T) {
	c := novoCenario(t)
	c.store.marcarNada = true

	_, err := c.service.Resgatar(context.Background(), c.sessao, selecaoCompleta())
	ab := exigirAborto(t, err, ErrCorridaPerdida)
	if ab.Retentavel() || ab.InvalidaSessao() {
		t.Fatalf("corrida perdida e terminal e nao derruba a sessao: %+v", ab)
	}
	if len(c.store.votosDoCodigo("X")) != 0 {
		t.Fatal("nenhum voto deveria ser gravado")
	}
}

func TestResgatarFalhaAoPublicarNaoDesfazVotos(t *testing.T) {
	c := novoCenario(t)
	c.fila.err = errors.New("redis fora do ar")

	if _, err := c.service.Resgatar(context.Background(), c.sessao, selecaoCompleta()); err != nil {
		t.Fatalf("falha de publicacao nao pode abortar o resgate: %v", err)
	}
	if len(c.store.votosDoCodigo("X")) != 2 {
		t.Fatal("votos devem permanecer gravados")
	}
}

func TestMontarPlanoOrdemDeterministica(t *testing.T) {
	cargos := []domain.Cargo{
		{ID: "P1", Candidatos: []domain.Candidato{{ID: "A"}}},
		{ID: "P2", Candidatos: []domain.Candidato{{ID: "C"}}},
	}
	p := montarPlano(cargos, domain.Selecao{"Z9": "x", "P2": "C", "P1": "A", "M5": "y"})

	if len(p.validas) != 2 || p.validas[0].CargoID != "P1" || p.validas[1].CargoID != "P2" {
		t.Fatalf("escolhas validas deveriam seguir a cedula: %+v", p.validas)
	}
	if len(p.ignoradas) != 2 || p.ignoradas[0].CargoID != "M5" || p.ignoradas[1].CargoID != "Z9" {
		t.Fatalf("ignorados deveriam vir ordenados: %+v", p.ignoradas)
	}
}
