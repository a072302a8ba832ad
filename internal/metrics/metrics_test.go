package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_VendasEFaturamento(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.VendaFinalizada("pix", decimal.RequireFromString("20.00"))
	m.VendaFinalizada("pix", decimal.RequireFromString("5.50"))
	m.VendaFinalizada("crediario", decimal.RequireFromString("21.10"))
	m.VendaCancelada()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "tenda_vendas_finalizadas_total", "metodo", "pix")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "tenda_faturamento_total", "metodo", "pix")
	require.NoError(t, err)
	assert.InDelta(t, 25.5, got, 1e-9)

	mf := findMetricFamily(mfs, "tenda_vendas_canceladas_total")
	require.NotNil(t, mf)
	assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
}

func TestMetrics_ParcelasAtrasadasGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ParcelasAtrasadas(3, decimal.RequireFromString("31.65"))
	m.ParcelasAtrasadas(1, decimal.RequireFromString("10.55"))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	mf := findMetricFamily(mfs, "tenda_parcelas_atrasadas")
	require.NotNil(t, mf)
	assert.Equal(t, 1.0, mf.GetMetric()[0].GetGauge().GetValue())
}

func TestMetrics_JobsEHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Job("recibo", true)
	m.Job("recibo", false)
	m.ObserveHTTP("POST", "/v1/vendas", "201", 40*time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	got, err := fetchCounterValue(mfs, "tenda_jobs_total", "resultado", "erro")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
	assert.NotNil(t, findMetricFamily(mfs, "tenda_http_request_duration_seconds"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.VendaFinalizada("pix", decimal.NewFromInt(1))
		m.VendaCancelada()
		m.ConflitoEstoque()
		m.ParcelasAtrasadas(1, decimal.NewFromInt(1))
		m.Job("email", true)
		m.ObserveHTTP("GET", "/", "200", time.Second)
	})
	assert.NotPanics(t, func() { New(nil).VendaCancelada() })
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		for _, l := range metric.GetLabel() {
			if l.GetName() == label && l.GetValue() == value {
				return metric.GetCounter().GetValue(), nil
			}
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
