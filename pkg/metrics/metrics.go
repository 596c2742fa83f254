package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrderMetrics counts order-creation outcomes. Rejections are labeled by
// reason (customer_not_found, product_not_found, insufficient_stock,
// invalid_data, infrastructure).
type OrderMetrics struct {
	Created  prometheus.Counter
	Rejected *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "orderflow",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Total number of orders created.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orderflow",
		Subsystem: "orders",
		Name:      "rejected_total",
		Help:      "Total number of rejected order-creation attempts.",
	}, []string{"reason"})

	reg.MustRegister(created, rejected)
	return &OrderMetrics{Created: created, Rejected: rejected}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
