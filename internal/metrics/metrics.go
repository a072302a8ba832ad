// Package metrics holds the Prometheus collectors of the POS backend.
// A nil *Metrics is valid and records nothing, so services and workers can be
// built without a registry in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "tenda"

type Metrics struct {
	vendas            *prometheus.CounterVec
	faturamento       *prometheus.CounterVec
	cancelamentos     prometheus.Counter
	conflitosEstoque  prometheus.Counter
	parcelasAtrasadas prometheus.Gauge
	valorAtrasado     prometheus.Gauge
	jobs              *prometheus.CounterVec
	httpDuracao       *prometheus.HistogramVec
}

// New registers every collector on reg. A nil registerer yields a no-op value.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		vendas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendas_finalizadas_total",
			Help:      "Finalized sales by payment method.",
		}, []string{"metodo"}),
		faturamento: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faturamento_total",
			Help:      "Revenue of finalized sales by payment method, in currency units.",
		}, []string{"metodo"}),
		cancelamentos: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendas_canceladas_total",
			Help:      "Sales voided.",
		}),
		conflitosEstoque: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflitos_estoque_total",
			Help:      "Sale items whose stock decrement was clamped at zero.",
		}),
		parcelasAtrasadas: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "parcelas_atrasadas",
			Help:      "Pending crediário installments past their due date.",
		}),
		valorAtrasado: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "parcelas_atrasadas_valor",
			Help:      "Sum of overdue crediário installments, in currency units.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Background jobs processed by type and result.",
		}, []string{"tipo", "resultado"}),
		httpDuracao: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.vendas, m.faturamento, m.cancelamentos, m.conflitosEstoque,
		m.parcelasAtrasadas, m.valorAtrasado, m.jobs, m.httpDuracao)
	return m
}

func (m *Metrics) VendaFinalizada(metodo string, total decimal.Decimal) {
	if m == nil || m.vendas == nil {
		return
	}
	metodo = normalizeLabel(metodo)
	m.vendas.WithLabelValues(metodo).Inc()
	f, _ := total.Float64()
	if f > 0 {
		m.faturamento.WithLabelValues(metodo).Add(f)
	}
}

func (m *Metrics) VendaCancelada() {
	if m == nil || m.cancelamentos == nil {
		return
	}
	m.cancelamentos.Inc()
}

func (m *Metrics) ConflitoEstoque() {
	if m == nil || m.conflitosEstoque == nil {
		return
	}
	m.conflitosEstoque.Inc()
}

// ParcelasAtrasadas sets the overdue gauges from the latest sweep.
func (m *Metrics) ParcelasAtrasadas(quantidade int64, valor decimal.Decimal) {
	if m == nil || m.parcelasAtrasadas == nil {
		return
	}
	m.parcelasAtrasadas.Set(float64(quantidade))
	f, _ := valor.Float64()
	m.valorAtrasado.Set(f)
}

// Job counts one processed job; ok=false counts a failed attempt.
func (m *Metrics) Job(tipo string, ok bool) {
	if m == nil || m.jobs == nil {
		return
	}
	resultado := "ok"
	if !ok {
		resultado = "erro"
	}
	m.jobs.WithLabelValues(normalizeLabel(tipo), resultado).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil || m.httpDuracao == nil {
		return
	}
	m.httpDuracao.WithLabelValues(method, normalizeLabel(route), status).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
