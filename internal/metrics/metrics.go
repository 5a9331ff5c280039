// Package metrics holds the Prometheus collectors of the storefront.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	CartMutations       *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	Checkouts           *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_mutations_total",
			Help:      "Applied cart mutations by kind.",
		}, []string{"kind"}),
		PersistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_persistence_failures_total",
			Help:      "Failed reads and writes of the persisted cart.",
		}, []string{"op"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_submissions_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "active_sessions",
			Help:      "Shopper sessions currently held in memory.",
		}),
	}
	reg.MustRegister(m.CartMutations, m.PersistenceFailures, m.Checkouts, m.ActiveSessions)
	return m
}

func (m *Metrics) CartMutation(kind string) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(kind).Inc()
}

func (m *Metrics) PersistenceFailure(op string) {
	if m == nil {
		return
	}
	m.PersistenceFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) Checkout(outcome string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}
