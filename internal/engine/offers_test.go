package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"nftmarket_go/internal/domain"
	"nftmarket_go/internal/event"
)

const offerTTL = 24 * time.Hour

func TestCreateOffer_Native(t *testing.T) {
	t.Run("Escrows On Creation", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.market.CreateOffer(bob, punks, "7", dec(800_000), domain.NativeToken, offerTTL, dec(800_000))
		if err != nil {
			t.Fatalf("CreateOffer: %v", err)
		}
		if id != 1 {
			t.Errorf("first offer id = %d, want 1", id)
		}
		if got := f.balance(bob); !got.Equal(dec(1_200_000)) {
			t.Errorf("buyer balance = %s, want 1200000 after escrow", got)
		}
		if got := f.balance(mktAccount); !got.Equal(dec(800_000)) {
			t.Errorf("marketplace should hold the escrow, got %s", got)
		}
		if f.lastEventType() != event.TypeOfferCreated {
			t.Errorf("last event %s, want %s", f.lastEventType(), event.TypeOfferCreated)
		}
	})

	t.Run("Wrong Tender", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.market.CreateOffer(bob, punks, "7", dec(800_000), domain.NativeToken, offerTTL, dec(1))
		if !errors.Is(err, domain.ErrBadTender) {
			t.Errorf("expected ErrBadTender, got %v", err)
		}
	})

	t.Run("Insufficient Funds", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.market.CreateOffer(carol, punks, "7", dec(100), domain.NativeToken, offerTTL, dec(100))
		if !domain.IsPaymentFailure(err) {
			t.Errorf("expected a payment failure for unfunded buyer, got %v", err)
		}
	})

	t.Run("Invalid Duration", func(t *testing.T) {
		f := newFixture(t)
		for _, d := range []time.Duration{0, time.Millisecond, 31 * 24 * time.Hour} {
			_, err := f.market.CreateOffer(bob, punks, "7", dec(100), domain.NativeToken, d, dec(100))
			if !errors.Is(err, domain.ErrInvalidDuration) {
				t.Errorf("duration %v: expected ErrInvalidDuration, got %v", d, err)
			}
		}
	})

	t.Run("Unknown Asset", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.market.CreateOffer(bob, punks, "404", dec(100), domain.NativeToken, offerTTL, dec(100))
		if !errors.Is(err, domain.ErrUnknownAsset) {
			t.Errorf("expected ErrUnknownAsset, got %v", err)
		}
	})
}

func TestCreateOffer_Fungible(t *testing.T) {
	t.Run("Requires Allowance Only", func(t *testing.T) {
		f := newFixture(t)
		f.usd.Approve(bob, mktAccount, dec(50_000))

		// No balance needed yet: funding happens at acceptance.
		id, err := f.market.CreateOffer(bob, punks, "7", dec(50_000), usdToken, offerTTL, decimal.Zero)
		if err != nil {
			t.Fatalf("CreateOffer: %v", err)
		}
		if got, _ := f.usd.BalanceOf(mktAccount); !got.IsZero() {
			t.Errorf("no tokens may move at creation, marketplace holds %s", got)
		}
		o, ok := f.market.GetOffer(id)
		if !ok || !o.Active {
			t.Fatal("offer should exist and be active")
		}
	})

	t.Run("Allowance Too Small", func(t *testing.T) {
		f := newFixture(t)
		f.usd.Approve(bob, mktAccount, dec(49_999))
		_, err := f.market.CreateOffer(bob, punks, "7", dec(50_000), usdToken, offerTTL, decimal.Zero)
		if !errors.Is(err, domain.ErrInsufficientAllowance) {
			t.Errorf("expected ErrInsufficientAllowance, got %v", err)
		}
	})

	t.Run("Must Tender Zero", func(t *testing.T) {
		f := newFixture(t)
		f.usd.Approve(bob, mktAccount, dec(50_000))
		_, err := f.market.CreateOffer(bob, punks, "7", dec(50_000), usdToken, offerTTL, dec(50_000))
		if !errors.Is(err, domain.ErrBadTender) {
			t.Errorf("expected ErrBadTender, got %v", err)
		}
	})
}

func TestAcceptOffer_Native(t *testing.T) {
	f := newFixture(t)
	id, err := f.market.CreateOffer(bob, punks, "7", dec(1_000_000), domain.NativeToken, offerTTL, dec(1_000_000))
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}

	t.Run("Wrong Caller", func(t *testing.T) {
		if err := f.market.AcceptOffer(carol, id); !errors.Is(err, domain.ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("Settles From Escrow", func(t *testing.T) {
		if err := f.market.AcceptOffer(alice, id); err != nil {
			t.Fatalf("AcceptOffer: %v", err)
		}

		// Escrowed 1,000,000 at 250 bps: seller 975,000, fee 25,000.
		if got := f.balance(alice); !got.Equal(dec(975_000)) {
			t.Errorf("seller balance = %s, want 975000", got)
		}
		if got := f.balance(bob); !got.Equal(dec(1_000_000)) {
			t.Errorf("buyer balance = %s, want 1000000", got)
		}
		if got := f.market.AccruedFees(domain.NativeToken); !got.Equal(dec(25_000)) {
			t.Errorf("accrued fees = %s, want 25000", got)
		}
		if got := f.owner(punks, "7"); got != bob {
			t.Errorf("owner = %s, want bob", got)
		}
		o, _ := f.market.GetOffer(id)
		if o.Active {
			t.Error("accepted offer should be inactive")
		}
	})

	t.Run("Accept Twice", func(t *testing.T) {
		if err := f.market.AcceptOffer(bob, id); !errors.Is(err, domain.ErrNotActive) {
			t.Errorf("expected ErrNotActive, got %v", err)
		}
	})
}

func TestAcceptOffer_Fungible(t *testing.T) {
	t.Run("Funds Pulled At Acceptance", func(t *testing.T) {
		f := newFixture(t)
		f.usd.Mint(bob, dec(60_000))
		f.usd.Approve(bob, mktAccount, dec(60_000))

		id, err := f.market.CreateOffer(bob, punks, "7", dec(60_000), usdToken, offerTTL, decimal.Zero)
		if err != nil {
			t.Fatalf("CreateOffer: %v", err)
		}
		if err := f.market.AcceptOffer(alice, id); err != nil {
			t.Fatalf("AcceptOffer: %v", err)
		}

		// 250 bps of 60,000: fee 1,500, seller 58,500.
		if got, _ := f.usd.BalanceOf(alice); !got.Equal(dec(58_500)) {
			t.Errorf("seller token balance = %s, want 58500", got)
		}
		if got, _ := f.usd.BalanceOf(bob); !got.IsZero() {
			t.Errorf("buyer token balance = %s, want 0", got)
		}
		if got := f.market.AccruedFees(usdToken); !got.Equal(dec(1_500)) {
			t.Errorf("accrued usdx fees = %s, want 1500", got)
		}
		if got := f.owner(punks, "7"); got != bob {
			t.Errorf("owner = %s, want bob", got)
		}
	})

	t.Run("Revoked Allowance Fails Cleanly", func(t *testing.T) {
		f := newFixture(t)
		f.usd.Mint(bob, dec(60_000))
		f.usd.Approve(bob, mktAccount, dec(60_000))

		id, err := f.market.CreateOffer(bob, punks, "7", dec(60_000), usdToken, offerTTL, decimal.Zero)
		if err != nil {
			t.Fatalf("CreateOffer: %v", err)
		}

		// Lazy validation: revoking after creation surfaces at accept.
		f.usd.Approve(bob, mktAccount, decimal.Zero)

		err = f.market.AcceptOffer(alice, id)
		if !domain.IsPaymentFailure(err) {
			t.Fatalf("expected a payment failure, got %v", err)
		}
		o, _ := f.market.GetOffer(id)
		if !o.Active {
			t.Error("offer must stay active after a failed acceptance")
		}
		if got := f.owner(punks, "7"); got != alice {
			t.Errorf("owner = %s, want alice", got)
		}
	})
}

func TestAcceptOffer_Expiry(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	f.fixClock(start)

	id, err := f.market.CreateOffer(bob, punks, "7", dec(1000), domain.NativeToken, time.Hour, dec(1000))
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}

	t.Run("At Expiry Instant", func(t *testing.T) {
		f.fixClock(start.Add(time.Hour))
		if err := f.market.AcceptOffer(alice, id); !errors.Is(err, domain.ErrOfferExpired) {
			t.Errorf("expected ErrOfferExpired at the expiry instant, got %v", err)
		}
	})

	t.Run("Just Before Expiry", func(t *testing.T) {
		f.fixClock(start.Add(time.Hour - time.Second))
		if err := f.market.AcceptOffer(alice, id); err != nil {
			t.Fatalf("offer should still be acceptable before expiry: %v", err)
		}
	})
}

func TestAcceptOffer_DeactivatesListing(t *testing.T) {
	f := newFixture(t)
	lid, err := f.market.CreateListing(alice, punks, "7", dec(2_000_000), domain.NativeToken)
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	oid, err := f.market.CreateOffer(bob, punks, "7", dec(1_500_000), domain.NativeToken, offerTTL, dec(1_500_000))
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}

	if err := f.market.AcceptOffer(alice, oid); err != nil {
		t.Fatalf("AcceptOffer: %v", err)
	}

	l, _ := f.market.GetListing(lid)
	if l.Active {
		t.Error("listing on the traded asset must be deactivated")
	}
	if got := f.market.ActiveListingFor(l.Asset()); got != 0 {
		t.Errorf("asset index should be cleared, got %d", got)
	}

	var sawCancel bool
	for _, ev := range f.events {
		if c, ok := ev.(*event.ListingCancelledEvent); ok &&
			c.ListingID == lid && c.Reason == event.ReasonOfferAccepted {
			sawCancel = true
		}
	}
	if !sawCancel {
		t.Error("expected a listing cancellation event with the offer-accepted reason")
	}
}

func TestCancelOffer(t *testing.T) {
	t.Run("Native Refunds Escrow", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.market.CreateOffer(bob, punks, "7", dec(300_000), domain.NativeToken, offerTTL, dec(300_000))
		if err != nil {
			t.Fatalf("CreateOffer: %v", err)
		}
		if err := f.market.CancelOffer(bob, id); err != nil {
			t.Fatalf("CancelOffer: %v", err)
		}

		if got := f.balance(bob); !got.Equal(dec(2_000_000)) {
			t.Errorf("buyer balance = %s, want full refund to 2000000", got)
		}
		if got := f.balance(mktAccount); !got.IsZero() {
			t.Errorf("marketplace must release the escrow, holds %s", got)
		}
		o, _ := f.market.GetOffer(id)
		if o.Active {
			t.Error("cancelled offer should be inactive")
		}

		cancelled, ok := f.events[len(f.events)-1].(*event.OfferCancelledEvent)
		if !ok || !cancelled.Refunded.Equal(dec(300_000)) {
			t.Errorf("cancellation event should carry the refunded amount, got %+v", f.events[len(f.events)-1])
		}
	})

	t.Run("Fungible Refunds Nothing", func(t *testing.T) {
		f := newFixture(t)
		f.usd.Approve(bob, mktAccount, dec(10_000))
		id, err := f.market.CreateOffer(bob, punks, "7", dec(10_000), usdToken, offerTTL, decimal.Zero)
		if err != nil {
			t.Fatalf("CreateOffer: %v", err)
		}
		if err := f.market.CancelOffer(bob, id); err != nil {
			t.Fatalf("CancelOffer: %v", err)
		}
		cancelled := f.events[len(f.events)-1].(*event.OfferCancelledEvent)
		if !cancelled.Refunded.IsZero() {
			t.Errorf("no escrow to refund for fungible offers, got %s", cancelled.Refunded)
		}
	})

	t.Run("Not Buyer", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.market.CreateOffer(bob, punks, "7", dec(1000), domain.NativeToken, offerTTL, dec(1000))
		if err != nil {
			t.Fatalf("CreateOffer: %v", err)
		}
		if err := f.market.CancelOffer(alice, id); !errors.Is(err, domain.ErrNotBuyer) {
			t.Errorf("expected ErrNotBuyer, got %v", err)
		}
	})

	t.Run("Cancel Twice", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.market.CreateOffer(bob, punks, "7", dec(1000), domain.NativeToken, offerTTL, dec(1000))
		if err != nil {
			t.Fatalf("CreateOffer: %v", err)
		}
		if err := f.market.CancelOffer(bob, id); err != nil {
			t.Fatalf("first CancelOffer: %v", err)
		}
		if err := f.market.CancelOffer(bob, id); !errors.Is(err, domain.ErrNotActive) {
			t.Errorf("expected ErrNotActive on second cancel, got %v", err)
		}
	})
}
