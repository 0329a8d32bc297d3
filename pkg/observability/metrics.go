package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/kiosk/pkg/domain"
)

const namespace = "kiosk"

// Metrics is a Prometheus backed ports.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	events          *prometheus.CounterVec
	parseFailures   *prometheus.CounterVec
	defaultPrices   *prometheus.CounterVec
	unresolved      prometheus.Counter
	orders          *prometheus.CounterVec
	orderValue      *prometheus.HistogramVec
	catalogDegraded prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of handled events by kind",
			},
			[]string{"kind"},
		),
		parseFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "price_parse_failures_total",
				Help:      "Prices that could not be parsed and were counted as zero",
			},
			[]string{"reason"},
		),
		defaultPrices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "default_unit_price_total",
				Help:      "Custom quantities priced with the default unit price",
			},
			[]string{"reason"},
		),
		unresolved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unresolved_cart_entries_total",
				Help:      "Cart entries shown with an unknown price",
			},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_total",
				Help:      "Total number of placed orders by payment method",
			},
			[]string{"method"},
		),
		orderValue: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "order_value_euros",
				Help:      "Order totals in euros",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 7),
			},
			[]string{"method"},
		),
		catalogDegraded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_degraded",
				Help:      "1 when the catalog fell back to safe defaults",
			},
		),
	}
	m.registry.MustRegister(
		m.events,
		m.parseFailures,
		m.defaultPrices,
		m.unresolved,
		m.orders,
		m.orderValue,
		m.catalogDegraded,
	)
	return m
}

// Registry exposes the registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EventHandled(kind domain.EventKind) {
	m.events.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) PriceParseFailed(reason string) {
	m.parseFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) DefaultPriceUsed(reason string) {
	m.defaultPrices.WithLabelValues(reason).Inc()
}

func (m *Metrics) UnresolvedCartEntry() {
	m.unresolved.Inc()
}

func (m *Metrics) OrderPlaced(method string, total float64) {
	m.orders.WithLabelValues(method).Inc()
	m.orderValue.WithLabelValues(method).Observe(total)
}

func (m *Metrics) CatalogLoaded(degraded bool) {
	if degraded {
		m.catalogDegraded.Set(1)
		return
	}
	m.catalogDegraded.Set(0)
}
