package engine

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"nftmarket_go/internal/domain"
	"nftmarket_go/internal/event"
	"nftmarket_go/internal/infra"
)

// CreateOffer places a time-bound bid on an asset. Native offers must
// tender exactly the offer price, which is escrowed immediately.
// Fungible offers tender nothing; they only prove sufficient allowance
// now and are funded at acceptance, so a later allowance or balance
// revocation surfaces as a payment failure then, not here.
func (m *Marketplace) CreateOffer(caller, contract domain.Account, assetID string,
	offerPrice decimal.Decimal, payToken domain.TokenID, duration time.Duration,
	tendered decimal.Decimal) (uint64, error) {

	const op = "create_offer"
	m.mu.Lock()
	defer m.mu.Unlock()

	if !offerPrice.IsPositive() {
		return 0, &domain.PreconditionError{Op: op, Err: domain.ErrInvalidPrice}
	}
	if !domain.ValidDuration(duration) {
		return 0, &domain.PreconditionError{Op: op, Err: domain.ErrInvalidDuration}
	}
	if err := m.requireSupported(op, payToken); err != nil {
		return 0, err
	}
	if _, err := m.registry.OwnerOf(contract, assetID); err != nil {
		return 0, &domain.PreconditionError{Op: op, Err: domain.ErrUnknownAsset}
	}

	if payToken.IsNative() {
		if !tendered.Equal(offerPrice) {
			return 0, &domain.PaymentError{Op: op, Err: domain.ErrBadTender}
		}
		// Escrow the full price with the marketplace until the offer
		// is accepted or cancelled.
		if err := m.native.Transfer(caller, m.account, offerPrice); err != nil {
			return 0, &domain.PaymentError{Op: op, Err: err}
		}
	} else {
		if !tendered.IsZero() {
			return 0, &domain.PaymentError{Op: op, Err: domain.ErrBadTender}
		}
		tok, ok := m.tokens[payToken]
		if !ok {
			return 0, &domain.PreconditionError{Op: op, Err: domain.ErrUnsupportedToken}
		}
		allowance, err := tok.Allowance(caller, m.account)
		if err != nil || allowance.LessThan(offerPrice) {
			return 0, &domain.PreconditionError{Op: op, Err: domain.ErrInsufficientAllowance}
		}
	}

	now := m.clock()
	id := m.nextOfferID
	m.nextOfferID++

	offer := &domain.Offer{
		ID:            id,
		Buyer:         caller,
		AssetContract: contract,
		AssetID:       assetID,
		OfferPrice:    offerPrice,
		PaymentToken:  payToken,
		ExpiresAt:     now.Add(duration),
		Active:        true,
		CreatedAt:     now,
	}
	m.offers[id] = offer

	m.emit(&event.OfferCreatedEvent{
		OfferID:       id,
		Buyer:         caller,
		AssetContract: contract,
		AssetID:       assetID,
		OfferPrice:    offerPrice,
		PaymentToken:  payToken,
		ExpiresAt:     offer.ExpiresAt,
	})
	slog.Info("offer created",
		slog.Uint64("offer_id", id),
		slog.String("asset", offer.Asset().String()),
		slog.String("price", offerPrice.String()),
		slog.Time("expires_at", offer.ExpiresAt))
	return id, nil
}

// AcceptOffer settles an offer: the caller must be the asset's current
// owner and the marketplace must hold transfer authorization. Expiry
// is exclusive: an offer is not acceptable at the instant it expires.
// Accepting also deactivates any active listing on the same asset so
// the listing index stays consistent with the trade that just happened
// through the offer channel.
func (m *Marketplace) AcceptOffer(caller domain.Account, offerID uint64) error {
	const op = "accept_offer"
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.offers[offerID]
	if !ok {
		return &domain.PreconditionError{Op: op, Err: domain.ErrUnknownOffer}
	}
	if !o.Active {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotActive}
	}
	if o.Expired(m.clock()) {
		return &domain.PreconditionError{Op: op, Err: domain.ErrOfferExpired}
	}

	owner, err := m.registry.OwnerOf(o.AssetContract, o.AssetID)
	if err != nil {
		return &domain.PreconditionError{Op: op, Err: domain.ErrUnknownAsset}
	}
	if owner != caller {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotOwner}
	}
	authorized, err := m.hasTransferAuth(o.AssetContract, caller, o.AssetID)
	if err != nil || !authorized {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotApproved}
	}

	rail, err := m.railFor(op, o.PaymentToken)
	if err != nil {
		return err
	}
	fee, sellerAmount := domain.SplitFee(o.OfferPrice, m.feeBps)

	// Stage ledger effects: deactivate the offer, and the asset's
	// active listing if there is one (cross-ledger cleanup).
	o.Active = false
	key := o.Asset()
	var staleListing *domain.Listing
	if lid := m.listingByAsset[key]; lid != 0 {
		if l := m.listings[lid]; l != nil && l.Active {
			staleListing = l
			l.Active = false
			delete(m.listingByAsset, key)
		}
	}

	// Native offers are already escrowed; fungible offers are funded
	// now, which is where lazy allowance validation surfaces.
	escrowed := o.PaymentToken.IsNative()
	if err := m.settle(op, rail, o.Buyer, caller, o.AssetContract, o.AssetID,
		o.OfferPrice, sellerAmount, escrowed); err != nil {
		o.Active = true
		if staleListing != nil {
			staleListing.Active = true
			m.listingByAsset[key] = staleListing.ID
		}
		infra.GlobalMetrics.RecordFailure(domain.ClassOf(err))
		return err
	}

	m.accrueFee(o.PaymentToken, fee)
	m.emit(&event.OfferAcceptedEvent{
		OfferID:      offerID,
		Seller:       caller,
		Fee:          fee,
		SellerAmount: sellerAmount,
		PaymentToken: o.PaymentToken,
	})
	if staleListing != nil {
		staleListing.UpdatedAt = m.clock()
		m.emit(&event.ListingCancelledEvent{ListingID: staleListing.ID, Reason: event.ReasonOfferAccepted})
	}
	infra.GlobalMetrics.RecordTrade()
	slog.Info("offer accepted",
		slog.Uint64("offer_id", offerID),
		slog.String("seller", string(caller)),
		slog.String("fee", fee.String()),
		slog.String("seller_amount", sellerAmount.String()))
	return nil
}

// CancelOffer deactivates an active offer and, for native offers,
// refunds the escrowed amount in full. Buyer only; cancelling an
// already-inactive offer fails.
func (m *Marketplace) CancelOffer(caller domain.Account, offerID uint64) error {
	const op = "cancel_offer"
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.offers[offerID]
	if !ok {
		return &domain.PreconditionError{Op: op, Err: domain.ErrUnknownOffer}
	}
	if !o.Active {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotActive}
	}
	if o.Buyer != caller {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotBuyer}
	}

	refunded := decimal.Zero
	if o.PaymentToken.IsNative() {
		// Release escrow before touching ledger state; a failed refund
		// leaves the offer active and the escrow intact.
		if err := m.native.Transfer(m.account, caller, o.OfferPrice); err != nil {
			return &domain.PaymentError{Op: op, Err: err}
		}
		refunded = o.OfferPrice
	}

	o.Active = false
	m.emit(&event.OfferCancelledEvent{OfferID: offerID, Refunded: refunded})
	return nil
}
