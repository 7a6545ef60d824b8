package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer durations are bounded to keep escrow from being locked up
// behind forgotten bids.
const (
	MinOfferDuration = time.Second
	MaxOfferDuration = 30 * 24 * time.Hour
)

// Offer is a buyer's standing time-bound bid for one asset.
//
// Native offers escrow their full price at creation; fungible offers
// only prove sufficient allowance at creation and are funded at
// acceptance, so they can become unfundable in between. Expiry is
// advisory: nothing sweeps expired offers, they simply stop being
// acceptable and must be cancelled to release escrow.
type Offer struct {
	ID            uint64          `json:"id"`
	Buyer         Account         `json:"buyer"`
	AssetContract Account         `json:"asset_contract"`
	AssetID       string          `json:"asset_id"`
	OfferPrice    decimal.Decimal `json:"offer_price"`
	PaymentToken  TokenID         `json:"payment_token"`
	ExpiresAt     time.Time       `json:"expires_at"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Asset returns the identity of the asset the offer targets.
func (o *Offer) Asset() AssetKey {
	return AssetKey{Contract: o.AssetContract, AssetID: o.AssetID}
}

// Expired reports whether the offer can no longer be accepted at the
// given instant. The boundary is exclusive: an offer is already
// expired at exactly ExpiresAt.
func (o *Offer) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// ValidDuration reports whether d is inside the allowed offer window.
func ValidDuration(d time.Duration) bool {
	return d >= MinOfferDuration && d <= MaxOfferDuration
}
