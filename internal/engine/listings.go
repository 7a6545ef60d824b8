package engine

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"nftmarket_go/internal/domain"
	"nftmarket_go/internal/event"
	"nftmarket_go/internal/infra"
)

// CreateListing puts an asset up for sale at a fixed price. The caller
// must be the registry-reported owner and must have granted the
// marketplace blanket transfer approval. An existing active listing on
// the same asset is superseded, not queued.
func (m *Marketplace) CreateListing(caller, contract domain.Account, assetID string,
	price decimal.Decimal, payToken domain.TokenID) (uint64, error) {

	const op = "create_listing"
	m.mu.Lock()
	defer m.mu.Unlock()

	if !price.IsPositive() {
		return 0, &domain.PreconditionError{Op: op, Err: domain.ErrInvalidPrice}
	}
	if err := m.requireSupported(op, payToken); err != nil {
		return 0, err
	}

	owner, err := m.registry.OwnerOf(contract, assetID)
	if err != nil {
		return 0, &domain.PreconditionError{Op: op, Err: domain.ErrUnknownAsset}
	}
	if owner != caller {
		return 0, &domain.PreconditionError{Op: op, Err: domain.ErrNotOwner}
	}
	approved, err := m.registry.IsApprovedForAll(contract, caller, m.account)
	if err != nil || !approved {
		return 0, &domain.PreconditionError{Op: op, Err: domain.ErrNotApproved}
	}

	key := domain.AssetKey{Contract: contract, AssetID: assetID}
	if prevID := m.listingByAsset[key]; prevID != 0 {
		if prev := m.listings[prevID]; prev != nil && prev.Active {
			prev.Active = false
			prev.UpdatedAt = m.clock()
			m.emit(&event.ListingCancelledEvent{ListingID: prevID, Reason: event.ReasonSuperseded})
		}
	}

	now := m.clock()
	id := m.nextListingID
	m.nextListingID++

	m.listings[id] = &domain.Listing{
		ID:            id,
		Seller:        caller,
		AssetContract: contract,
		AssetID:       assetID,
		Price:         price,
		PaymentToken:  payToken,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.listingByAsset[key] = id

	m.emit(&event.ListingCreatedEvent{
		ListingID:     id,
		Seller:        caller,
		AssetContract: contract,
		AssetID:       assetID,
		Price:         price,
		PaymentToken:  payToken,
	})
	slog.Info("listing created",
		slog.Uint64("listing_id", id),
		slog.String("asset", key.String()),
		slog.String("price", price.String()))
	return id, nil
}

// UpdateListing changes the price of an active listing in place. Only
// the seller may do this; the id never changes.
func (m *Marketplace) UpdateListing(caller domain.Account, listingID uint64, newPrice decimal.Decimal) error {
	const op = "update_listing"
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[listingID]
	if !ok {
		return &domain.PreconditionError{Op: op, Err: domain.ErrUnknownListing}
	}
	if !l.Active {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotActive}
	}
	if l.Seller != caller {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotSeller}
	}
	if !newPrice.IsPositive() {
		return &domain.PreconditionError{Op: op, Err: domain.ErrInvalidPrice}
	}

	l.Price = newPrice
	l.UpdatedAt = m.clock()
	m.emit(&event.ListingUpdatedEvent{ListingID: listingID, Price: newPrice})
	return nil
}

// CancelListing deactivates an active listing. Seller only.
func (m *Marketplace) CancelListing(caller domain.Account, listingID uint64) error {
	const op = "cancel_listing"
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[listingID]
	if !ok {
		return &domain.PreconditionError{Op: op, Err: domain.ErrUnknownListing}
	}
	if !l.Active {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotActive}
	}
	if l.Seller != caller {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotSeller}
	}

	l.Active = false
	l.UpdatedAt = m.clock()
	delete(m.listingByAsset, l.Asset())
	m.emit(&event.ListingCancelledEvent{ListingID: listingID, Reason: event.ReasonSeller})
	return nil
}

// BuyNFT executes an atomic purchase of a listed asset. For native
// listings the tendered value must equal the price exactly; for
// fungible listings tendered must be zero and the price is pulled via
// allowance. Ownership is re-validated against the registry so a stale
// listing left behind by an out-of-band transfer fails instead of
// moving funds to the wrong party.
func (m *Marketplace) BuyNFT(caller domain.Account, listingID uint64, tendered decimal.Decimal) error {
	const op = "buy_nft"
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[listingID]
	if !ok {
		return &domain.PreconditionError{Op: op, Err: domain.ErrUnknownListing}
	}
	if !l.Active {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotActive}
	}

	owner, err := m.registry.OwnerOf(l.AssetContract, l.AssetID)
	if err != nil {
		return &domain.PreconditionError{Op: op, Err: domain.ErrUnknownAsset}
	}
	if owner != l.Seller {
		return &domain.PreconditionError{Op: op, Err: domain.ErrStaleOwnership}
	}
	authorized, err := m.hasTransferAuth(l.AssetContract, l.Seller, l.AssetID)
	if err != nil || !authorized {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotApproved}
	}

	if l.PaymentToken.IsNative() {
		if !tendered.Equal(l.Price) {
			return &domain.PaymentError{Op: op, Err: domain.ErrBadTender}
		}
	} else if !tendered.IsZero() {
		return &domain.PaymentError{Op: op, Err: domain.ErrBadTender}
	}

	rail, err := m.railFor(op, l.PaymentToken)
	if err != nil {
		return err
	}
	fee, sellerAmount := domain.SplitFee(l.Price, m.feeBps)

	// Effects first: deactivate before any external call, restore on
	// failure.
	key := l.Asset()
	l.Active = false
	delete(m.listingByAsset, key)

	if err := m.settle(op, rail, caller, l.Seller, l.AssetContract, l.AssetID,
		l.Price, sellerAmount, false); err != nil {
		l.Active = true
		m.listingByAsset[key] = listingID
		infra.GlobalMetrics.RecordFailure(domain.ClassOf(err))
		return err
	}

	l.UpdatedAt = m.clock()
	m.accrueFee(l.PaymentToken, fee)
	m.emit(&event.ListingSoldEvent{
		ListingID:    listingID,
		Buyer:        caller,
		Price:        l.Price,
		Fee:          fee,
		SellerAmount: sellerAmount,
		PaymentToken: l.PaymentToken,
	})
	infra.GlobalMetrics.RecordTrade()
	slog.Info("listing sold",
		slog.Uint64("listing_id", listingID),
		slog.String("buyer", string(caller)),
		slog.String("fee", fee.String()),
		slog.String("seller_amount", sellerAmount.String()))
	return nil
}
