package memory

import (
	"sync"

	"github.com/shopspring/decimal"

	"nftmarket_go/internal/domain"
)

// Bank is an in-memory native value ledger.
type Bank struct {
	mu       sync.Mutex
	balances map[domain.Account]decimal.Decimal
}

// NewBank creates an empty native ledger.
func NewBank() *Bank {
	return &Bank{balances: make(map[domain.Account]decimal.Decimal)}
}

// Deposit credits an account. Test/demo helper.
func (b *Bank) Deposit(account domain.Account, amount decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = b.balances[account].Add(amount)
}

func (b *Bank) Balance(account domain.Account) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account], nil
}

func (b *Bank) Transfer(from, to domain.Account, amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if to == "" {
		return ErrZeroRecipient
	}
	if amount.IsNegative() {
		return ErrInsufficient
	}
	if b.balances[from].LessThan(amount) {
		return ErrInsufficient
	}
	b.balances[from] = b.balances[from].Sub(amount)
	b.balances[to] = b.balances[to].Add(amount)
	return nil
}
