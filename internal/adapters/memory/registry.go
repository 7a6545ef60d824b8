// Package memory provides in-process implementations of the external
// capabilities the marketplace consumes: an asset registry, fungible
// tokens, and a native value ledger. They back the engine tests and
// the demo serve wiring; production deployments swap in real adapters
// behind the same domain interfaces.
package memory

import (
	"errors"
	"sync"

	"nftmarket_go/internal/domain"
)

var (
	ErrAssetNotFound  = errors.New("asset not found")
	ErrNotAuthorized  = errors.New("transfer not authorized")
	ErrWrongOwner     = errors.New("from is not the current owner")
	ErrAlreadyMinted  = errors.New("asset already minted")
	ErrZeroRecipient  = errors.New("recipient is empty")
	ErrInsufficient   = errors.New("insufficient balance")
	ErrAllowanceShort = errors.New("insufficient allowance")
)

type assetRef struct {
	contract domain.Account
	assetID  string
}

type approvalRef struct {
	contract domain.Account
	owner    domain.Account
	operator domain.Account
}

// Registry is an in-memory asset registry. The operator given at
// construction (the marketplace account) is the identity all Transfer
// calls act as: a transfer succeeds only when the operator is the
// current owner, holds blanket approval from the owner, or holds the
// per-asset approval.
type Registry struct {
	mu        sync.Mutex
	operator  domain.Account
	owners    map[assetRef]domain.Account
	approved  map[assetRef]domain.Account
	operators map[approvalRef]bool
}

// NewRegistry creates a registry acting as the given operator.
func NewRegistry(operator domain.Account) *Registry {
	return &Registry{
		operator:  operator,
		owners:    make(map[assetRef]domain.Account),
		approved:  make(map[assetRef]domain.Account),
		operators: make(map[approvalRef]bool),
	}
}

// Mint creates an asset owned by owner. Test/demo helper.
func (r *Registry) Mint(contract domain.Account, assetID string, owner domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := assetRef{contract, assetID}
	if _, ok := r.owners[ref]; ok {
		return ErrAlreadyMinted
	}
	r.owners[ref] = owner
	return nil
}

// SetApprovalForAll grants or revokes blanket operator approval.
func (r *Registry) SetApprovalForAll(contract, owner, operator domain.Account, approved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators[approvalRef{contract, owner, operator}] = approved
}

// Approve sets the per-asset approved operator.
func (r *Registry) Approve(contract domain.Account, assetID string, operator domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.approved[assetRef{contract, assetID}] = operator
}

// ForceTransfer moves an asset without authorization checks,
// simulating an out-of-band transfer that leaves marketplace listings
// stale. Test/demo helper.
func (r *Registry) ForceTransfer(contract domain.Account, assetID string, to domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := assetRef{contract, assetID}
	if _, ok := r.owners[ref]; !ok {
		return ErrAssetNotFound
	}
	r.owners[ref] = to
	delete(r.approved, ref)
	return nil
}

func (r *Registry) OwnerOf(contract domain.Account, assetID string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[assetRef{contract, assetID}]
	if !ok {
		return "", ErrAssetNotFound
	}
	return owner, nil
}

func (r *Registry) IsApprovedForAll(contract, owner, operator domain.Account) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.operators[approvalRef{contract, owner, operator}], nil
}

func (r *Registry) GetApproved(contract domain.Account, assetID string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[assetRef{contract, assetID}]; !ok {
		return "", ErrAssetNotFound
	}
	return r.approved[assetRef{contract, assetID}], nil
}

// Transfer moves an asset from → to, acting as the configured
// operator. Per-asset approval is cleared on success.
func (r *Registry) Transfer(contract, from, to domain.Account, assetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if to == "" {
		return ErrZeroRecipient
	}
	ref := assetRef{contract, assetID}
	owner, ok := r.owners[ref]
	if !ok {
		return ErrAssetNotFound
	}
	if owner != from {
		return ErrWrongOwner
	}

	authorized := r.operator == from ||
		r.operators[approvalRef{contract, from, r.operator}] ||
		r.approved[ref] == r.operator
	if !authorized {
		return ErrNotAuthorized
	}

	r.owners[ref] = to
	delete(r.approved, ref)
	return nil
}
