package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics содержит метрики операций над хранилищем СТО.
type StoreMetrics struct {
	// Счётчик операций по типу и результату
	operations *prometheus.CounterVec

	// Отказы персистентности: мутация применена, снапшот не записан
	persistenceFailures prometheus.Counter

	// Публикация событий
	eventsPublished      prometheus.Counter
	eventPublishFailures prometheus.Counter

	// Gauge для размеров коллекций
	vehicles prometheus.Gauge
	orders   prometheus.Gauge
}

// NewStoreMetrics создаёт метрики, зарегистрированные в default registerer.
func NewStoreMetrics() *StoreMetrics {
	return NewStoreMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewStoreMetricsWithRegisterer создаёт метрики с явным registerer (для тестов).
func NewStoreMetricsWithRegisterer(registerer prometheus.Registerer) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StoreMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "sto_store_operations_total",
			Help: "Total number of store operations by operation and result",
		}, []string{"operation", "result"}),
		persistenceFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sto_persistence_failures_total",
			Help: "Total number of snapshot save failures",
		}),
		eventsPublished: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sto_events_published_total",
			Help: "Total number of lifecycle events published",
		}),
		eventPublishFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "sto_event_publish_failures_total",
			Help: "Total number of lifecycle event publish failures",
		}),
		vehicles: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "sto_vehicles",
			Help: "Number of registered vehicles",
		}),
		orders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "sto_repair_orders",
			Help: "Number of repair orders",
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

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOperation учитывает операцию хранилища и её результат.
func (m *StoreMetrics) RecordOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

// RecordPersistenceFailure увеличивает счётчик отказов записи снапшота.
func (m *StoreMetrics) RecordPersistenceFailure() {
	m.persistenceFailures.Inc()
}

// RecordEventPublished увеличивает счётчик опубликованных событий.
func (m *StoreMetrics) RecordEventPublished() {
	m.eventsPublished.Inc()
}

// RecordEventPublishFailure увеличивает счётчик неудачных публикаций.
func (m *StoreMetrics) RecordEventPublishFailure() {
	m.eventPublishFailures.Inc()
}

// SetVehicles выставляет gauge количества транспортных средств.
func (m *StoreMetrics) SetVehicles(n int) {
	m.vehicles.Set(float64(n))
}

// SetOrders выставляет gauge количества заявок.
func (m *StoreMetrics) SetOrders(n int) {
	m.orders.Set(float64(n))
}
