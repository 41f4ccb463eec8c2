package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "weather_records_"

	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

var (
	registerOnce sync.Once

	storeOperations *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	storeDegraded   prometheus.Counter // List calls served empty because the medium was unreadable

	lookupTotal *prometheus.CounterVec
)

// Init registers the metrics on the default registry. Safe to call more than once.
func Init() {
	InitWith(prometheus.DefaultRegisterer)
}

// InitWith registers the metrics on reg. Only the first call has an effect.
func InitWith(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		storeOperations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_operations_total",
				Help: "Total record store operations by operation and result",
			},
			[]string{"op", "result"},
		)
		storeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "store_latency_seconds",
				Help:    "Record store operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		)
		storeDegraded = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_list_degraded_total",
				Help: "List calls served as empty because the backing medium was unreadable",
			},
		)
		lookupTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upstream_lookups_total",
				Help: "Upstream weather lookups by provider and result",
			},
			[]string{"provider", "result"},
		)

		reg.MustRegister(storeOperations, storeLatency, storeDegraded, lookupTotal)
	})
}

// ObserveStore records one store operation.
func ObserveStore(op, result string, elapsed time.Duration) {
	if storeOperations == nil {
		return
	}
	storeOperations.WithLabelValues(op, result).Inc()
	storeLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveDegradedList counts a List call that hid a read or decode failure
// behind an empty result.
func ObserveDegradedList() {
	if storeDegraded == nil {
		return
	}
	storeDegraded.Inc()
}

// ObserveLookup records one upstream provider call.
func ObserveLookup(provider, result string) {
	if lookupTotal == nil {
		return
	}
	lookupTotal.WithLabelValues(provider, result).Inc()
}

// StoreOperations exposes the counter vector for tests.
func StoreOperations() *prometheus.CounterVec {
	return storeOperations
}

// DegradedLists exposes the degraded-list counter for tests.
func DegradedLists() prometheus.Counter {
	return storeDegraded
}
