package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShopMetrics records order and cart activity.
type ShopMetrics struct {
	ordersCreated prometheus.Counter
	statusChanges *prometheus.CounterVec
	cartMerges    *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// NewShopMetrics registers the shop metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		return &ShopMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders placed at checkout.",
	})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Order status transitions by resulting status and actor.",
	}, []string{"status", "actor"})
	cartMerges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_merge_items_total",
		Help: "Guest cart items merged into user carts at login.",
	}, []string{"result"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})
	httpDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(ordersCreated, statusChanges, cartMerges, httpRequests, httpDurations)
	return &ShopMetrics{
		ordersCreated: ordersCreated,
		statusChanges: statusChanges,
		cartMerges:    cartMerges,
		httpRequests:  httpRequests,
		httpDurations: httpDurations,
	}
}

// IncOrderCreated counts a placed order.
func (m *ShopMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncStatusChange counts a status change performed by actor ("user" or "admin").
func (m *ShopMetrics) IncStatusChange(status, actor string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(status), normalizeLabel(actor)).Inc()
}

// AddCartMerge counts merged and failed guest cart items.
func (m *ShopMetrics) AddCartMerge(merged, failed int) {
	if m == nil || m.cartMerges == nil {
		return
	}
	if merged > 0 {
		m.cartMerges.WithLabelValues("merged").Add(float64(merged))
	}
	if failed > 0 {
		m.cartMerges.WithLabelValues("failed").Add(float64(failed))
	}
}

// ObserveHTTP records one served request.
func (m *ShopMetrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	route = normalizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.httpDurations.WithLabelValues(method, route).Observe(duration.Seconds())
}

func statusLabel(status int) string {
	if status <= 0 {
		status = 200
	}
	return strconv.Itoa(status)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
