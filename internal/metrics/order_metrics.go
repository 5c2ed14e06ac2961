package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	ordersCreated      prometheus.Counter
	statusTransitions  *prometheus.CounterVec
	rejectedTransitions prometheus.Counter
	ordersCancelled    prometheus.Counter
	paymentUpdates     *prometheus.CounterVec
	rollbacks          prometheus.Counter

	transitionDuration prometheus.Histogram
}

// NewOrderMetrics создаёт метрики в default-реестре Prometheus.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fm_orders_created_total",
			Help: "Total number of orders created at checkout",
		}),
		statusTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "fm_order_status_transitions_total",
			Help: "Total number of successful order status transitions",
		}, []string{"to"}),
		rejectedTransitions: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fm_order_transitions_rejected_total",
			Help: "Total number of order status transitions rejected by the state machine",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fm_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		paymentUpdates: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "fm_order_payment_updates_total",
			Help: "Total number of payment status updates",
		}, []string{"to"}),
		rollbacks: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fm_order_write_rollbacks_total",
			Help: "Total number of optimistic updates rolled back after a failed write",
		}),
		transitionDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "fm_order_transition_duration_seconds",
			Help:    "Duration of order transitions including the durable write",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик оформленных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordTransition увеличивает счётчик успешных переходов в статус to.
func (m *OrderMetrics) RecordTransition(to string) {
	m.statusTransitions.WithLabelValues(to).Inc()
}

// RecordRejectedTransition увеличивает счётчик отклонённых переходов.
func (m *OrderMetrics) RecordRejectedTransition() {
	m.rejectedTransitions.Inc()
}

// RecordCancelled увеличивает счётчик отменённых заказов.
func (m *OrderMetrics) RecordCancelled() {
	m.ordersCancelled.Inc()
}

// RecordPaymentUpdate увеличивает счётчик смен статуса оплаты.
func (m *OrderMetrics) RecordPaymentUpdate(to string) {
	m.paymentUpdates.WithLabelValues(to).Inc()
}

// RecordRollback увеличивает счётчик откатов оптимистичных обновлений.
func (m *OrderMetrics) RecordRollback() {
	m.rollbacks.Inc()
}

// RecordTransitionDuration записывает длительность перехода.
func (m *OrderMetrics) RecordTransitionDuration(duration time.Duration) {
	m.transitionDuration.Observe(duration.Seconds())
}
