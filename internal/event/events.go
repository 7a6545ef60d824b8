package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"nftmarket_go/internal/domain"
)

// Event types. These are the wire names used in the journal and on the
// feed; changing one breaks replay of existing journals.
const (
	TypeListingCreated   = "listing.created"
	TypeListingUpdated   = "listing.updated"
	TypeListingCancelled = "listing.cancelled"
	TypeListingSold      = "listing.sold"
	TypeOfferCreated     = "offer.created"
	TypeOfferAccepted    = "offer.accepted"
	TypeOfferCancelled   = "offer.cancelled"
	TypeFeeUpdated       = "fee.updated"
	TypeTokenStatus      = "token.status"
	TypeFundsWithdrawn   = "funds.withdrawn"
)

// Reasons carried by ListingCancelledEvent.
const (
	ReasonSeller        = "seller"         // explicit cancellation
	ReasonSuperseded    = "superseded"     // replaced by a new listing
	ReasonOfferAccepted = "offer_accepted" // asset traded through the offer ledger
)

// Event is a committed ledger change. The event stream is the only
// mechanism external observers have to reconstruct marketplace state.
type Event interface {
	GetSeq() uint64
	GetTs() int64
	GetType() string
}

// BaseEvent carries the fields every event shares. Seq is assigned by
// the engine at commit time and is strictly monotonic.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"` // unix milliseconds
}

func (b *BaseEvent) GetSeq() uint64 { return b.Seq }
func (b *BaseEvent) GetTs() int64   { return b.Ts }

// Stamp assigns the commit sequence number and timestamp.
func (b *BaseEvent) Stamp(seq uint64, at time.Time) {
	b.Seq = seq
	b.Ts = at.UnixMilli()
}

type ListingCreatedEvent struct {
	BaseEvent
	ListingID     uint64          `json:"listing_id"`
	Seller        domain.Account  `json:"seller"`
	AssetContract domain.Account  `json:"asset_contract"`
	AssetID       string          `json:"asset_id"`
	Price         decimal.Decimal `json:"price"`
	PaymentToken  domain.TokenID  `json:"payment_token"`
}

func (e *ListingCreatedEvent) GetType() string { return TypeListingCreated }

type ListingUpdatedEvent struct {
	BaseEvent
	ListingID uint64          `json:"listing_id"`
	Price     decimal.Decimal `json:"price"`
}

func (e *ListingUpdatedEvent) GetType() string { return TypeListingUpdated }

type ListingCancelledEvent struct {
	BaseEvent
	ListingID uint64 `json:"listing_id"`
	Reason    string `json:"reason"`
}

func (e *ListingCancelledEvent) GetType() string { return TypeListingCancelled }

type ListingSoldEvent struct {
	BaseEvent
	ListingID    uint64          `json:"listing_id"`
	Buyer        domain.Account  `json:"buyer"`
	Price        decimal.Decimal `json:"price"`
	Fee          decimal.Decimal `json:"fee"`
	SellerAmount decimal.Decimal `json:"seller_amount"`
	PaymentToken domain.TokenID  `json:"payment_token"`
}

func (e *ListingSoldEvent) GetType() string { return TypeListingSold }

type OfferCreatedEvent struct {
	BaseEvent
	OfferID       uint64          `json:"offer_id"`
	Buyer         domain.Account  `json:"buyer"`
	AssetContract domain.Account  `json:"asset_contract"`
	AssetID       string          `json:"asset_id"`
	OfferPrice    decimal.Decimal `json:"offer_price"`
	PaymentToken  domain.TokenID  `json:"payment_token"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

func (e *OfferCreatedEvent) GetType() string { return TypeOfferCreated }

type OfferAcceptedEvent struct {
	BaseEvent
	OfferID      uint64          `json:"offer_id"`
	Seller       domain.Account  `json:"seller"`
	Fee          decimal.Decimal `json:"fee"`
	SellerAmount decimal.Decimal `json:"seller_amount"`
	PaymentToken domain.TokenID  `json:"payment_token"`
}

func (e *OfferAcceptedEvent) GetType() string { return TypeOfferAccepted }

type OfferCancelledEvent struct {
	BaseEvent
	OfferID  uint64          `json:"offer_id"`
	Refunded decimal.Decimal `json:"refunded"` // zero for fungible offers
}

func (e *OfferCancelledEvent) GetType() string { return TypeOfferCancelled }

type FeeUpdatedEvent struct {
	BaseEvent
	FeeBps int64 `json:"fee_bps"`
}

func (e *FeeUpdatedEvent) GetType() string { return TypeFeeUpdated }

type TokenStatusEvent struct {
	BaseEvent
	Token     domain.TokenID `json:"token"`
	Supported bool           `json:"supported"`
}

func (e *TokenStatusEvent) GetType() string { return TypeTokenStatus }

type FundsWithdrawnEvent struct {
	BaseEvent
	Token  domain.TokenID  `json:"token"`
	To     domain.Account  `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

func (e *FundsWithdrawnEvent) GetType() string { return TypeFundsWithdrawn }

// Decode reconstructs a typed event from its journal representation.
func Decode(typ string, payload []byte) (Event, error) {
	var ev Event
	switch typ {
	case TypeListingCreated:
		ev = &ListingCreatedEvent{}
	case TypeListingUpdated:
		ev = &ListingUpdatedEvent{}
	case TypeListingCancelled:
		ev = &ListingCancelledEvent{}
	case TypeListingSold:
		ev = &ListingSoldEvent{}
	case TypeOfferCreated:
		ev = &OfferCreatedEvent{}
	case TypeOfferAccepted:
		ev = &OfferAcceptedEvent{}
	case TypeOfferCancelled:
		ev = &OfferCancelledEvent{}
	case TypeFeeUpdated:
		ev = &FeeUpdatedEvent{}
	case TypeTokenStatus:
		ev = &TokenStatusEvent{}
	case TypeFundsWithdrawn:
		ev = &FundsWithdrawnEvent{}
	default:
		return nil, fmt.Errorf("unknown event type %q", typ)
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", typ, err)
	}
	return ev, nil
}
