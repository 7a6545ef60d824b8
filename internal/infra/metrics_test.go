package infra

import (
	"testing"

	"nftmarket_go/internal/domain"
)

func TestMetrics_Counters(t *testing.T) {
	m := &Metrics{}

	m.RecordTrade()
	m.RecordTrade()
	m.RecordEventPublished()
	m.RecordFailure(domain.FailurePrecondition)
	m.RecordFailure(domain.FailurePayment)
	m.RecordFailure(domain.FailureAssetTransfer)
	m.RecordFailure(domain.FailurePayment)

	snap := m.Snapshot()
	if snap.TradesSettled != 2 {
		t.Errorf("Expected 2 trades, got %d", snap.TradesSettled)
	}
	if snap.EventsPublished != 1 {
		t.Errorf("Expected 1 published event, got %d", snap.EventsPublished)
	}
	if snap.PreconditionFailures != 1 {
		t.Errorf("Expected 1 precondition failure, got %d", snap.PreconditionFailures)
	}
	if snap.PaymentFailures != 2 {
		t.Errorf("Expected 2 payment failures, got %d", snap.PaymentFailures)
	}
	if snap.TransferFailures != 1 {
		t.Errorf("Expected 1 transfer failure, got %d", snap.TransferFailures)
	}
}

func TestMetrics_FeedClients(t *testing.T) {
	m := &Metrics{}

	m.IncrementFeedClients()
	m.IncrementFeedClients()
	m.IncrementFeedClients()

	if got := m.Snapshot().FeedClients; got != 3 {
		t.Errorf("Expected 3 feed clients, got %d", got)
	}

	m.DecrementFeedClients()
	if got := m.Snapshot().FeedClients; got != 2 {
		t.Errorf("Expected 2 feed clients, got %d", got)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}
	m.RecordTrade()
	m.IncrementFeedClients()

	m.Reset()

	snap := m.Snapshot()
	if snap.TradesSettled != 0 || snap.FeedClients != 0 {
		t.Errorf("Expected zeroed metrics after reset, got %+v", snap)
	}
}
