package infra

import (
	"sync/atomic"
	"time"

	"nftmarket_go/internal/domain"
)

// Metrics provides lightweight observability without external
// dependencies. Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	tradesSettled        atomic.Uint64
	eventsPublished      atomic.Uint64
	preconditionFailures atomic.Uint64
	paymentFailures      atomic.Uint64
	transferFailures     atomic.Uint64

	// Gauges
	feedClients atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTrade records a settled trade (sale or accepted offer).
func (m *Metrics) RecordTrade() {
	m.tradesSettled.Add(1)
}

// RecordEventPublished records one change event handed to the sink.
func (m *Metrics) RecordEventPublished() {
	m.eventsPublished.Add(1)
}

// RecordFailure records an aborted operation by failure class.
func (m *Metrics) RecordFailure(class domain.FailureClass) {
	switch class {
	case domain.FailurePayment:
		m.paymentFailures.Add(1)
	case domain.FailureAssetTransfer:
		m.transferFailures.Add(1)
	default:
		m.preconditionFailures.Add(1)
	}
}

// IncrementFeedClients increments the connected feed client gauge.
func (m *Metrics) IncrementFeedClients() {
	m.feedClients.Add(1)
}

// DecrementFeedClients decrements the connected feed client gauge.
func (m *Metrics) DecrementFeedClients() {
	m.feedClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	TradesSettled        uint64
	EventsPublished      uint64
	PreconditionFailures uint64
	PaymentFailures      uint64
	TransferFailures     uint64
	FeedClients          int32
	Timestamp            time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TradesSettled:        m.tradesSettled.Load(),
		EventsPublished:      m.eventsPublished.Load(),
		PreconditionFailures: m.preconditionFailures.Load(),
		PaymentFailures:      m.paymentFailures.Load(),
		TransferFailures:     m.transferFailures.Load(),
		FeedClients:          m.feedClients.Load(),
		Timestamp:            time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.tradesSettled.Store(0)
	m.eventsPublished.Store(0)
	m.preconditionFailures.Store(0)
	m.paymentFailures.Store(0)
	m.transferFailures.Store(0)
	m.feedClients.Store(0)
}
