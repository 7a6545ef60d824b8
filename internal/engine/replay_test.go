package engine

import (
	"testing"

	"nftmarket_go/internal/adapters/memory"
	"nftmarket_go/internal/domain"
	"nftmarket_go/internal/event"
)

// replayTarget builds a fresh marketplace with the fixture config but
// no journal sink, ready to consume a recorded event stream.
func replayTarget(t *testing.T) *Marketplace {
	t.Helper()
	m, err := New(Config{
		Account:         mktAccount,
		Admin:           adminAcct,
		FeeBps:          testFeeBps,
		SupportedTokens: []domain.TokenID{usdToken},
	}, memory.NewRegistry(mktAccount), memory.NewBank(),
		map[domain.TokenID]domain.FungibleToken{usdToken: memory.NewToken(mktAccount)}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestReplay_RebuildsState(t *testing.T) {
	f := newFixture(t)

	// Drive a representative session: a superseded listing, a sale, an
	// offer cancelled with refund, a fee change, a token change, and a
	// fee withdrawal.
	if _, err := f.market.CreateListing(alice, punks, "7", dec(900_000), domain.NativeToken); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	lid, err := f.market.CreateListing(alice, punks, "7", dec(1_000_000), domain.NativeToken)
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	if err := f.market.UpdateListing(alice, lid, dec(1_100_000)); err != nil {
		t.Fatalf("UpdateListing: %v", err)
	}
	oid, err := f.market.CreateOffer(bob, punks, "7", dec(500_000), domain.NativeToken, offerTTL, dec(500_000))
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}
	if err := f.market.CancelOffer(bob, oid); err != nil {
		t.Fatalf("CancelOffer: %v", err)
	}
	if err := f.market.BuyNFT(bob, lid, dec(1_100_000)); err != nil {
		t.Fatalf("BuyNFT: %v", err)
	}
	if err := f.market.SetFee(adminAcct, 100); err != nil {
		t.Fatalf("SetFee: %v", err)
	}
	if err := f.market.SetSupportedPaymentToken(adminAcct, "eurx", true); err != nil {
		t.Fatalf("SetSupportedPaymentToken: %v", err)
	}
	if _, err := f.market.WithdrawNative(adminAcct); err != nil {
		t.Fatalf("WithdrawNative: %v", err)
	}

	restored := replayTarget(t)
	for _, ev := range f.events {
		restored.Replay(ev)
	}

	live := f.market.StateSnapshot()
	replayed := restored.StateSnapshot()

	if replayed.NextSeq != live.NextSeq {
		t.Errorf("next seq = %d, want %d", replayed.NextSeq, live.NextSeq)
	}
	if replayed.FeeBps != live.FeeBps {
		t.Errorf("fee = %d, want %d", replayed.FeeBps, live.FeeBps)
	}
	if !restored.IsSupportedToken("eurx") {
		t.Error("replayed state should support eurx")
	}
	if len(replayed.Listings) != len(live.Listings) {
		t.Fatalf("listing count = %d, want %d", len(replayed.Listings), len(live.Listings))
	}
	for id, want := range live.Listings {
		got, ok := replayed.Listings[id]
		if !ok {
			t.Errorf("listing %d missing after replay", id)
			continue
		}
		if got.Active != want.Active || !got.Price.Equal(want.Price) ||
			got.Seller != want.Seller || got.PaymentToken != want.PaymentToken {
			t.Errorf("listing %d diverged: got %+v want %+v", id, got, want)
		}
	}
	for id, want := range live.Offers {
		got, ok := replayed.Offers[id]
		if !ok {
			t.Errorf("offer %d missing after replay", id)
			continue
		}
		if got.Active != want.Active || !got.OfferPrice.Equal(want.OfferPrice) {
			t.Errorf("offer %d diverged: got %+v want %+v", id, got, want)
		}
	}

	// Fees were accrued by the sale and drained by the withdrawal.
	if got := restored.AccruedFees(domain.NativeToken); !got.Equal(f.market.AccruedFees(domain.NativeToken)) {
		t.Errorf("accrued fees = %s, want %s", got, f.market.AccruedFees(domain.NativeToken))
	}
}

func TestReplay_ContinuesIDAllocation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.market.CreateListing(alice, punks, "7", dec(1000), domain.NativeToken); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	if _, err := f.market.CreateOffer(bob, punks, "7", dec(500), domain.NativeToken, offerTTL, dec(500)); err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}

	restored := replayTarget(t)
	for _, ev := range f.events {
		restored.Replay(ev)
	}

	// New entities created after replay must not collide with replayed
	// ids.
	if restored.nextListingID != 2 || restored.nextOfferID != 2 {
		t.Errorf("id allocators = (%d, %d), want (2, 2)",
			restored.nextListingID, restored.nextOfferID)
	}
}

func TestReplay_GapPanics(t *testing.T) {
	restored := replayTarget(t)

	defer func() {
		if recover() == nil {
			t.Fatal("a sequence gap in the journal must panic")
		}
	}()

	ev := &event.FeeUpdatedEvent{FeeBps: 100}
	ev.Seq = 5 // expected seq is 1
	restored.Replay(ev)
}
