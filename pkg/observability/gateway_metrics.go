package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transaction outcomes recorded by GatewayMetrics
const (
	OutcomeApproved  = "approved"
	OutcomeDeclined  = "declined"
	OutcomeRejected  = "rejected" // refused locally, never transmitted
	OutcomeProtocol  = "protocol_error"
	OutcomeTransport = "transport_error"
	OutcomeInvalid   = "invalid_request"
)

// GatewayMetrics records gateway transaction counts and latencies
type GatewayMetrics struct {
	transactionsTotal *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	batchSize         prometheus.Histogram
}

// NewGatewayMetrics registers the gateway metrics on reg.
// A nil registerer uses the default prometheus registry.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &GatewayMetrics{
		transactionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "virtualmerchant_transactions_total",
			Help: "Total number of VirtualMerchant gateway transactions",
		}, []string{
			"transaction_type", // ccsale, ccauthonly, ccreturn, ccvoid, settle, ccgettoken, txnquery
			"outcome",          // approved, declined, rejected, protocol_error, transport_error, invalid_request
		}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "virtualmerchant_request_duration_seconds",
			Help: "Duration of VirtualMerchant gateway round trips in seconds",
			// Buckets: 100ms to 60s
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"transaction_type"}),

		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "virtualmerchant_settled_batch_size",
			Help:    "Number of transactions returned by settled batch queries",
			Buckets: prometheus.ExponentialBuckets(1, 4, 6),
		}),
	}
}

// RecordTransaction records the outcome of one gateway operation.
// Safe to call on a nil receiver.
func (m *GatewayMetrics) RecordTransaction(transactionType, outcome string) {
	if m == nil {
		return
	}
	m.transactionsTotal.WithLabelValues(transactionType, outcome).Inc()
}

// ObserveDuration records a gateway round trip
func (m *GatewayMetrics) ObserveDuration(transactionType string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(transactionType).Observe(seconds)
}

// ObserveBatchSize records the size of a settled batch listing
func (m *GatewayMetrics) ObserveBatchSize(n int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(n))
}
