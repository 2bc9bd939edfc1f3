package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters exported on /metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	checkouts      *prometheus.CounterVec
	settledAmount  prometheus.Counter
	stockMutations *prometheus.CounterVec
	taxRateFetches *prometheus.CounterVec
	currentTaxRate prometheus.Gauge
}

// New registers the counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "checkouts_total",
			Help:      "Transaction submissions by result.",
		}, []string{"result"}),
		settledAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "settled_amount_minor_total",
			Help:      "Sum of settled total amounts in the minor currency unit.",
		}),
		stockMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "stock_mutations_total",
			Help:      "Stock mutations by action and result.",
		}, []string{"action", "result"}),
		taxRateFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "tax_rate_fetches_total",
			Help:      "Tax rate refreshes by result.",
		}, []string{"result"}),
		currentTaxRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pos",
			Name:      "tax_rate_percent",
			Help:      "Tax rate currently applied to the cart.",
		}),
	}
	reg.MustRegister(m.checkouts, m.settledAmount, m.stockMutations, m.taxRateFetches, m.currentTaxRate)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveCheckout(amount int64, err error) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(result(err)).Inc()
	if err == nil && amount > 0 {
		m.settledAmount.Add(float64(amount))
	}
}

func (m *Metrics) ObserveStockMutation(action string, err error) {
	if m == nil {
		return
	}
	m.stockMutations.WithLabelValues(action, result(err)).Inc()
}

// ObserveUnrecordedMutation counts mutations applied remotely whose local
// history insert failed.
func (m *Metrics) ObserveUnrecordedMutation(action string) {
	if m == nil {
		return
	}
	m.stockMutations.WithLabelValues(action, "unrecorded").Inc()
}

func (m *Metrics) ObserveTaxRate(rate float64, err error) {
	if m == nil {
		return
	}
	m.taxRateFetches.WithLabelValues(result(err)).Inc()
	m.currentTaxRate.Set(rate)
}
