package domain

import "github.com/shopspring/decimal"

// AssetRegistry is the external capability resolving ownership,
// approval, and transfer for unique assets. Transfer fails when the
// marketplace lacks authorization or the asset does not exist.
type AssetRegistry interface {
	OwnerOf(contract Account, assetID string) (Account, error)
	IsApprovedForAll(contract, owner, operator Account) (bool, error)
	GetApproved(contract Account, assetID string) (Account, error)
	Transfer(contract, from, to Account, assetID string) error
}

// FungibleToken is the external capability for one amount-based
// currency. Implementations are bound to the marketplace identity:
// TransferFrom spends the marketplace's allowance from owner, and
// Transfer moves funds out of the marketplace's own balance.
type FungibleToken interface {
	BalanceOf(owner Account) (decimal.Decimal, error)
	Allowance(owner, spender Account) (decimal.Decimal, error)
	TransferFrom(owner, to Account, amount decimal.Decimal) error
	Transfer(to Account, amount decimal.Decimal) error
}

// NativeLedger moves the platform's built-in value currency.
type NativeLedger interface {
	Balance(account Account) (decimal.Decimal, error)
	Transfer(from, to Account, amount decimal.Decimal) error
}
