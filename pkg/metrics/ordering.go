package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/tableside-backend/pkg/money"
)

// OrderingMetrics tracks the cart-to-order flow.
type OrderingMetrics struct {
	cartMutations  *prometheus.CounterVec
	ordersPlaced   prometheus.Counter
	orderTotal     prometheus.Histogram
	emptyCarts     prometheus.Counter
	sessionsClosed *prometheus.CounterVec
}

// NewOrderingMetrics registers the ordering metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewOrderingMetrics(reg prometheus.Registerer) *OrderingMetrics {
	if reg == nil {
		return &OrderingMetrics{}
	}
	m := &OrderingMetrics{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders created from carts.",
		}),
		orderTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "total_amount",
			Help:      "Order totals in major currency units.",
			Buckets:   []float64{5, 10, 20, 40, 80, 160, 320},
		}),
		emptyCarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "empty_cart_rejections_total",
			Help:      "Order placements rejected because the cart was empty.",
		}),
		sessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "ended_total",
			Help:      "Table sessions that reached a terminal status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.cartMutations, m.ordersPlaced, m.orderTotal, m.emptyCarts, m.sessionsClosed)
	return m
}

// CartMutation counts one add/update/remove/clear.
func (m *OrderingMetrics) CartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

// OrderPlaced records a successful conversion.
func (m *OrderingMetrics) OrderPlaced(total money.Cents) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderTotal.Observe(total.Decimal().InexactFloat64())
}

// EmptyCart records a rejected conversion.
func (m *OrderingMetrics) EmptyCart() {
	if m == nil || m.emptyCarts == nil {
		return
	}
	m.emptyCarts.Inc()
}

// SessionEnded records a session entering paid or closed.
func (m *OrderingMetrics) SessionEnded(status string) {
	if m == nil || m.sessionsClosed == nil {
		return
	}
	m.sessionsClosed.WithLabelValues(status).Inc()
}
