package memory

import (
	"sync"

	"github.com/shopspring/decimal"

	"nftmarket_go/internal/domain"
)

// Token is an in-memory fungible token bound to a spender identity
// (the marketplace account): TransferFrom consumes that spender's
// allowance, and Transfer spends the spender's own balance.
type Token struct {
	mu         sync.Mutex
	spender    domain.Account
	balances   map[domain.Account]decimal.Decimal
	allowances map[[2]domain.Account]decimal.Decimal // [owner, spender]
}

// NewToken creates a token ledger acting as the given spender.
func NewToken(spender domain.Account) *Token {
	return &Token{
		spender:    spender,
		balances:   make(map[domain.Account]decimal.Decimal),
		allowances: make(map[[2]domain.Account]decimal.Decimal),
	}
}

// Mint credits an account. Test/demo helper.
func (t *Token) Mint(account domain.Account, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[account] = t.balances[account].Add(amount)
}

// Approve sets the allowance owner grants to spender.
func (t *Token) Approve(owner, spender domain.Account, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowances[[2]domain.Account{owner, spender}] = amount
}

func (t *Token) BalanceOf(owner domain.Account) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[owner], nil
}

func (t *Token) Allowance(owner, spender domain.Account) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowances[[2]domain.Account{owner, spender}], nil
}

// TransferFrom moves owner's funds using the bound spender's
// allowance.
func (t *Token) TransferFrom(owner, to domain.Account, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if to == "" {
		return ErrZeroRecipient
	}
	key := [2]domain.Account{owner, t.spender}
	if t.allowances[key].LessThan(amount) {
		return ErrAllowanceShort
	}
	if t.balances[owner].LessThan(amount) {
		return ErrInsufficient
	}

	t.allowances[key] = t.allowances[key].Sub(amount)
	t.balances[owner] = t.balances[owner].Sub(amount)
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

// Transfer spends the bound spender's own balance.
func (t *Token) Transfer(to domain.Account, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if to == "" {
		return ErrZeroRecipient
	}
	if t.balances[t.spender].LessThan(amount) {
		return ErrInsufficient
	}
	t.balances[t.spender] = t.balances[t.spender].Sub(amount)
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}
