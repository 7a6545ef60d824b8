package engine

import (
	"fmt"
	"log/slog"
	"time"

	"nftmarket_go/internal/domain"
	"nftmarket_go/internal/event"
)

// Replay applies a journaled event to ledger state without running any
// external payment or transfer calls; those already happened when the
// event was committed. Events must arrive in exact sequence order;
// a gap means the journal is corrupt and replay halts.
func (m *Marketplace) Replay(ev event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.GetSeq() != m.nextSeq {
		panic(fmt.Sprintf("REPLAY_GAP_DETECTED: expected %d, got %d", m.nextSeq, ev.GetSeq()))
	}

	ts := time.UnixMilli(ev.GetTs())

	switch e := ev.(type) {
	case *event.ListingCreatedEvent:
		m.listings[e.ListingID] = &domain.Listing{
			ID:            e.ListingID,
			Seller:        e.Seller,
			AssetContract: e.AssetContract,
			AssetID:       e.AssetID,
			Price:         e.Price,
			PaymentToken:  e.PaymentToken,
			Active:        true,
			CreatedAt:     ts,
			UpdatedAt:     ts,
		}
		m.listingByAsset[domain.AssetKey{Contract: e.AssetContract, AssetID: e.AssetID}] = e.ListingID
		if e.ListingID >= m.nextListingID {
			m.nextListingID = e.ListingID + 1
		}

	case *event.ListingUpdatedEvent:
		if l := m.listings[e.ListingID]; l != nil {
			l.Price = e.Price
			l.UpdatedAt = ts
		}

	case *event.ListingCancelledEvent:
		m.deactivateListing(e.ListingID, ts)

	case *event.ListingSoldEvent:
		m.deactivateListing(e.ListingID, ts)
		m.accrueFee(e.PaymentToken, e.Fee)

	case *event.OfferCreatedEvent:
		m.offers[e.OfferID] = &domain.Offer{
			ID:            e.OfferID,
			Buyer:         e.Buyer,
			AssetContract: e.AssetContract,
			AssetID:       e.AssetID,
			OfferPrice:    e.OfferPrice,
			PaymentToken:  e.PaymentToken,
			ExpiresAt:     e.ExpiresAt,
			Active:        true,
			CreatedAt:     ts,
		}
		if e.OfferID >= m.nextOfferID {
			m.nextOfferID = e.OfferID + 1
		}

	case *event.OfferAcceptedEvent:
		if o := m.offers[e.OfferID]; o != nil {
			o.Active = false
			m.accrueFee(e.PaymentToken, e.Fee)
		}

	case *event.OfferCancelledEvent:
		if o := m.offers[e.OfferID]; o != nil {
			o.Active = false
		}

	case *event.FeeUpdatedEvent:
		m.feeBps = e.FeeBps

	case *event.TokenStatusEvent:
		m.supported[e.Token] = e.Supported

	case *event.FundsWithdrawnEvent:
		if e.Token.IsNative() {
			m.feesNative = m.feesNative.Sub(e.Amount)
		} else {
			m.feesToken[e.Token] = m.feesToken[e.Token].Sub(e.Amount)
		}

	default:
		slog.Warn("unknown event type in replay", slog.String("type", ev.GetType()))
	}

	m.nextSeq++
}

// deactivateListing marks a listing inactive and clears the asset
// index entry if it still points at this listing.
func (m *Marketplace) deactivateListing(id uint64, ts time.Time) {
	l := m.listings[id]
	if l == nil {
		return
	}
	l.Active = false
	l.UpdatedAt = ts
	key := l.Asset()
	if m.listingByAsset[key] == id {
		delete(m.listingByAsset, key)
	}
}
