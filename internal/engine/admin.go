package engine

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"nftmarket_go/internal/domain"
	"nftmarket_go/internal/event"
)

// SetFee updates the platform fee rate. Admin only, capped at
// MaxFeeBps; a rejected update leaves the prior value intact.
func (m *Marketplace) SetFee(caller domain.Account, feeBps int64) error {
	const op = "set_fee"
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(op, caller); err != nil {
		return err
	}
	if !domain.ValidFeeBps(feeBps) {
		return &domain.PreconditionError{Op: op, Err: domain.ErrFeeTooHigh}
	}

	m.feeBps = feeBps
	m.emit(&event.FeeUpdatedEvent{FeeBps: feeBps})
	slog.Info("fee updated", slog.Int64("fee_bps", feeBps))
	return nil
}

// SetSupportedPaymentToken adds or removes a fungible token from the
// allow-list. Idempotent: re-applying the current status is a no-op.
// The native sentinel can never be removed.
func (m *Marketplace) SetSupportedPaymentToken(caller domain.Account, token domain.TokenID, supported bool) error {
	const op = "set_supported_token"
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(op, caller); err != nil {
		return err
	}
	if token.IsNative() && !supported {
		return &domain.PreconditionError{Op: op, Err: domain.ErrProtectedToken}
	}
	if m.supported[token] == supported {
		return nil
	}

	m.supported[token] = supported
	m.emit(&event.TokenStatusEvent{Token: token, Supported: supported})
	slog.Info("payment token status updated",
		slog.String("token", string(token)), slog.Bool("supported", supported))
	return nil
}

// WithdrawNative pays the accrued native fee balance out to the admin
// and returns the withdrawn amount. Withdrawing a zero balance is an
// idempotent no-op. Escrowed offer funds are never touched: the
// withdrawal is capped by the accrued-fee counter, not by the raw
// account balance.
func (m *Marketplace) WithdrawNative(caller domain.Account) (decimal.Decimal, error) {
	const op = "withdraw_native"
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(op, caller); err != nil {
		return decimal.Zero, err
	}

	amount := m.feesNative
	if amount.IsZero() {
		return decimal.Zero, nil
	}
	if err := m.native.Transfer(m.account, caller, amount); err != nil {
		return decimal.Zero, &domain.PaymentError{Op: op, Err: err}
	}

	m.feesNative = decimal.Zero
	m.emit(&event.FundsWithdrawnEvent{Token: domain.NativeToken, To: caller, Amount: amount})
	slog.Info("native fees withdrawn", slog.String("amount", amount.String()))
	return amount, nil
}

// WithdrawFungible pays the accrued fee balance of one token out to
// the admin. Works even for tokens since removed from the allow-list,
// so de-listing a token never strands its fees.
func (m *Marketplace) WithdrawFungible(caller domain.Account, token domain.TokenID) (decimal.Decimal, error) {
	const op = "withdraw_fungible"
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(op, caller); err != nil {
		return decimal.Zero, err
	}
	if token.IsNative() {
		return decimal.Zero, &domain.PreconditionError{Op: op, Err: domain.ErrUnsupportedToken}
	}
	tok, ok := m.tokens[token]
	if !ok {
		return decimal.Zero, &domain.PreconditionError{Op: op, Err: domain.ErrUnsupportedToken}
	}

	amount := m.feesToken[token]
	if amount.IsZero() {
		return decimal.Zero, nil
	}
	if err := tok.Transfer(caller, amount); err != nil {
		return decimal.Zero, &domain.PaymentError{Op: op, Err: err}
	}

	m.feesToken[token] = decimal.Zero
	m.emit(&event.FundsWithdrawnEvent{Token: token, To: caller, Amount: amount})
	slog.Info("token fees withdrawn",
		slog.String("token", string(token)), slog.String("amount", amount.String()))
	return amount, nil
}
