package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"nftmarket_go/internal/domain"
	"nftmarket_go/internal/event"
)

// Config wires a Marketplace instance.
type Config struct {
	// Account is the marketplace's own account: fee sink and escrow
	// holder on both payment rails.
	Account domain.Account

	// Admin is the single privileged identity allowed to change fees,
	// the token allow-list, and to withdraw accrued fees.
	Admin domain.Account

	// FeeBps is the initial platform fee in basis points.
	FeeBps int64

	// SupportedTokens is the initial fungible token allow-list. The
	// native sentinel is always supported and need not be listed.
	SupportedTokens []domain.TokenID
}

// Marketplace is the ledger and settlement core. Every public
// operation takes the exclusive lock for its whole duration and
// validates against the latest committed state, so concurrent
// submissions resolve as "whichever executes first wins; the later one
// fails its precondition". Ledger mutations are staged before external
// payment/transfer calls run and are discarded if any of them fails,
// making each operation all-or-nothing.
type Marketplace struct {
	mu sync.RWMutex

	registry domain.AssetRegistry
	native   domain.NativeLedger
	tokens   map[domain.TokenID]domain.FungibleToken

	account domain.Account
	admin   domain.Account

	feeBps    int64
	supported map[domain.TokenID]bool

	listings       map[uint64]*domain.Listing
	offers         map[uint64]*domain.Offer
	listingByAsset map[domain.AssetKey]uint64

	// Accrued platform fees per rail. Escrow and fees share the
	// marketplace account, but withdrawals are capped by these
	// counters so they can never consume live offer escrow.
	feesNative decimal.Decimal
	feesToken  map[domain.TokenID]decimal.Decimal

	nextListingID uint64
	nextOfferID   uint64
	nextSeq       uint64

	clock func() time.Time
	sink  func(event.Event)
}

// New creates a marketplace. The sink receives every committed change
// event in sequence order; it must not call back into the engine.
func New(cfg Config, registry domain.AssetRegistry, native domain.NativeLedger,
	tokens map[domain.TokenID]domain.FungibleToken, sink func(event.Event)) (*Marketplace, error) {

	if cfg.Account == "" || cfg.Admin == "" {
		return nil, fmt.Errorf("marketplace account and admin are required")
	}
	if !domain.ValidFeeBps(cfg.FeeBps) {
		return nil, fmt.Errorf("fee %d bps: %w", cfg.FeeBps, domain.ErrFeeTooHigh)
	}
	if registry == nil || native == nil {
		return nil, fmt.Errorf("asset registry and native ledger are required")
	}

	m := &Marketplace{
		registry:       registry,
		native:         native,
		tokens:         tokens,
		account:        cfg.Account,
		admin:          cfg.Admin,
		feeBps:         cfg.FeeBps,
		supported:      map[domain.TokenID]bool{domain.NativeToken: true},
		listings:       make(map[uint64]*domain.Listing),
		offers:         make(map[uint64]*domain.Offer),
		listingByAsset: make(map[domain.AssetKey]uint64),
		feesToken:      make(map[domain.TokenID]decimal.Decimal),
		nextListingID:  1,
		nextOfferID:    1,
		nextSeq:        1,
		clock:          time.Now,
		sink:           sink,
	}
	for _, t := range cfg.SupportedTokens {
		m.supported[t] = true
	}
	return m, nil
}

// Account returns the marketplace's own account.
func (m *Marketplace) Account() domain.Account { return m.account }

// emit stamps and publishes a committed event. Must be called with the
// write lock held so sequence numbers match commit order.
func (m *Marketplace) emit(ev event.Event) {
	type stamper interface {
		Stamp(seq uint64, at time.Time)
	}
	ev.(stamper).Stamp(m.nextSeq, m.clock())
	m.nextSeq++
	if m.sink != nil {
		m.sink(ev)
	}
}

func (m *Marketplace) requireAdmin(op string, caller domain.Account) error {
	if caller != m.admin {
		return &domain.PreconditionError{Op: op, Err: domain.ErrNotAdmin}
	}
	return nil
}

func (m *Marketplace) requireSupported(op string, token domain.TokenID) error {
	if !m.supported[token] {
		return &domain.PreconditionError{Op: op, Err: domain.ErrUnsupportedToken}
	}
	return nil
}

// hasTransferAuth reports whether the marketplace may move the asset
// on behalf of its owner: blanket operator approval or a per-asset
// approval.
func (m *Marketplace) hasTransferAuth(contract, owner domain.Account, assetID string) (bool, error) {
	ok, err := m.registry.IsApprovedForAll(contract, owner, m.account)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	approved, err := m.registry.GetApproved(contract, assetID)
	if err != nil {
		return false, err
	}
	return approved == m.account, nil
}

// GetListing returns a snapshot of the listing, if it exists.
func (m *Marketplace) GetListing(id uint64) (domain.Listing, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	if !ok {
		return domain.Listing{}, false
	}
	return *l, true
}

// GetOffer returns a snapshot of the offer, if it exists.
func (m *Marketplace) GetOffer(id uint64) (domain.Offer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.offers[id]
	if !ok {
		return domain.Offer{}, false
	}
	return *o, true
}

// ActiveListingFor returns the id of the asset's active listing, or 0.
func (m *Marketplace) ActiveListingFor(key domain.AssetKey) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id := m.listingByAsset[key]
	if id == 0 {
		return 0
	}
	if l := m.listings[id]; l == nil || !l.Active {
		return 0
	}
	return id
}

// FeeBps returns the current platform fee rate.
func (m *Marketplace) FeeBps() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.feeBps
}

// IsSupportedToken reports whether the token is on the allow-list.
func (m *Marketplace) IsSupportedToken(token domain.TokenID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.supported[token]
}

// AccruedFees returns the withdrawable fee balance for a rail.
func (m *Marketplace) AccruedFees(token domain.TokenID) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if token.IsNative() {
		return m.feesNative
	}
	return m.feesToken[token]
}

// Snapshot is a full copy of ledger state for dumps and inspection.
type Snapshot struct {
	NextSeq   uint64                    `json:"next_seq"`
	FeeBps    int64                     `json:"fee_bps"`
	Supported []domain.TokenID          `json:"supported_tokens"`
	Listings  map[uint64]domain.Listing `json:"listings"`
	Offers    map[uint64]domain.Offer   `json:"offers"`
}

// StateSnapshot returns a copy of the entire ledger (external read).
func (m *Marketplace) StateSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		NextSeq:  m.nextSeq,
		FeeBps:   m.feeBps,
		Listings: make(map[uint64]domain.Listing, len(m.listings)),
		Offers:   make(map[uint64]domain.Offer, len(m.offers)),
	}
	for t, ok := range m.supported {
		if ok {
			snap.Supported = append(snap.Supported, t)
		}
	}
	for id, l := range m.listings {
		snap.Listings[id] = *l
	}
	for id, o := range m.offers {
		snap.Offers[id] = *o
	}
	return snap
}
