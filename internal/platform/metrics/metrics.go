package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resgateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eleicao_resgate_total",
		Help: "Total de tentativas de resgate de codigo por resultado",
	}, []string{"resultado"})

	resgateDuracao = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eleicao_resgate_duracao_seconds",
		Help:    "Tempo da transacao de resgate, incluindo a espera pelo lock",
		Buckets: prometheus.DefBuckets,
	})

	selecoesIgnoradasTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eleicao_selecoes_ignoradas_total",
		Help: "Pares cargo/candidato descartados por nao pertencerem a eleicao",
	})

	loginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eleicao_login_total",
		Help: "Tentativas de login com codigo de votacao por resultado",
	}, []string{"resultado"})

	cedulasProcessadasTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eleicao_cedulas_processadas_total",
		Help: "Cedulas registradas consumidas pelo worker",
	})

	processamentoDuracao = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eleicao_cedula_processamento_duracao_seconds",
		Help:    "Tempo para o worker atualizar os contadores de uma cedula",
		Buckets: prometheus.DefBuckets,
	})

	statusAlteradosTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eleicao_status_alterados_total",
		Help: "Eleicoes que tiveram o status alterado pelo agendador",
	})
)

func ObserveResgate(resultado string, seconds float64) {
	resgateTotal.WithLabelValues(resultado).Inc()
	resgateDuracao.Observe(seconds)
}

func AddSelecoesIgnoradas(n int) {
	selecoesIgnoradasTotal.Add(float64(n))
}

func ObserveLogin(resultado string) {
	loginTotal.WithLabelValues(resultado).Inc()
}

func IncCedulaProcessada() {
	cedulasProcessadasTotal.Inc()
}

func ObserveProcessingDuration(seconds float64) {
	processamentoDuracao.Observe(seconds)
}

func AddStatusAlterados(n int) {
	statusAlteradosTotal.Add(float64(n))
}
