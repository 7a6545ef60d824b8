package engine

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"nftmarket_go/internal/domain"
)

// paymentRail is the single payment contract both ledgers settle
// through. collect pulls buyer funds into the marketplace account,
// disburse pays out of it, refund returns collected funds. The rail
// for a trade is selected by the stored payment-token field.
type paymentRail interface {
	collect(from domain.Account, amount decimal.Decimal) error
	disburse(to domain.Account, amount decimal.Decimal) error
	refund(to domain.Account, amount decimal.Decimal) error
}

type nativeRail struct {
	ledger  domain.NativeLedger
	account domain.Account // marketplace account
}

func (r nativeRail) collect(from domain.Account, amount decimal.Decimal) error {
	return r.ledger.Transfer(from, r.account, amount)
}

func (r nativeRail) disburse(to domain.Account, amount decimal.Decimal) error {
	return r.ledger.Transfer(r.account, to, amount)
}

func (r nativeRail) refund(to domain.Account, amount decimal.Decimal) error {
	return r.ledger.Transfer(r.account, to, amount)
}

type tokenRail struct {
	token   domain.FungibleToken
	account domain.Account // marketplace account
}

func (r tokenRail) collect(from domain.Account, amount decimal.Decimal) error {
	// Allowance-based pull into the marketplace's own balance.
	return r.token.TransferFrom(from, r.account, amount)
}

func (r tokenRail) disburse(to domain.Account, amount decimal.Decimal) error {
	return r.token.Transfer(to, amount)
}

func (r tokenRail) refund(to domain.Account, amount decimal.Decimal) error {
	return r.token.Transfer(to, amount)
}

// railFor selects the payment rail for a token. Callers must have
// already checked the token against the allow-list.
func (m *Marketplace) railFor(op string, token domain.TokenID) (paymentRail, error) {
	if token.IsNative() {
		return nativeRail{ledger: m.native, account: m.account}, nil
	}
	tok, ok := m.tokens[token]
	if !ok {
		return nil, &domain.PreconditionError{Op: op, Err: domain.ErrUnsupportedToken}
	}
	return tokenRail{token: tok, account: m.account}, nil
}

// settle executes the external half of a trade as one atomic unit:
//
//	collect full price (skipped when already escrowed)
//	move the asset seller → buyer
//	disburse the seller's share out of the marketplace account
//
// Each completed step pushes a compensating action; any failure
// unwinds them LIFO and returns the classified error, leaving no
// partial payment state observable. The steps are ordered so that
// everything preceding the irreversible asset move is reversible by
// the marketplace alone, and the final disburse is funded by the
// collect/escrow that just happened.
//
// The platform fee (price - sellerAmount) stays in the marketplace
// account; the caller accrues it after settle returns nil.
func (m *Marketplace) settle(op string, rail paymentRail, buyer, seller domain.Account,
	contract domain.Account, assetID string, price, sellerAmount decimal.Decimal, escrowed bool) error {

	var undo []func() error
	rollback := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			if err := undo[i](); err != nil {
				slog.Error("settlement compensation failed",
					slog.String("op", op), slog.Any("error", err))
			}
		}
	}

	if !escrowed {
		if err := rail.collect(buyer, price); err != nil {
			return &domain.PaymentError{Op: op, Err: err}
		}
		undo = append(undo, func() error { return rail.refund(buyer, price) })
	}

	if err := m.registry.Transfer(contract, seller, buyer, assetID); err != nil {
		rollback()
		return &domain.AssetTransferError{Op: op, Err: err}
	}
	undo = append(undo, func() error {
		return m.registry.Transfer(contract, buyer, seller, assetID)
	})

	if err := rail.disburse(seller, sellerAmount); err != nil {
		rollback()
		return &domain.PaymentError{Op: op, Err: err}
	}

	return nil
}

// accrueFee records the platform's share after a successful trade.
func (m *Marketplace) accrueFee(token domain.TokenID, fee decimal.Decimal) {
	if token.IsNative() {
		m.feesNative = m.feesNative.Add(fee)
		return
	}
	m.feesToken[token] = m.feesToken[token].Add(fee)
}
