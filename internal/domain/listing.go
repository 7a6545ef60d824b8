package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a seller's standing fixed-price sale offer for one asset.
// At most one listing per asset is active at any time; creating a new
// one supersedes (deactivates) the previous one. State transitions are
// monotonic: once inactive, a listing is never reactivated.
type Listing struct {
	ID            uint64          `json:"id"`
	Seller        Account         `json:"seller"`
	AssetContract Account         `json:"asset_contract"`
	AssetID       string          `json:"asset_id"`
	Price         decimal.Decimal `json:"price"`
	PaymentToken  TokenID         `json:"payment_token"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Asset returns the identity of the listed asset.
func (l *Listing) Asset() AssetKey {
	return AssetKey{Contract: l.AssetContract, AssetID: l.AssetID}
}
