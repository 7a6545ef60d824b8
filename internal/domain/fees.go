package domain

import "github.com/shopspring/decimal"

const (
	// MaxFeeBps caps the platform fee at 5%.
	MaxFeeBps int64 = 500

	// FeeDenominator converts basis points to a fraction.
	FeeDenominator int64 = 10_000
)

var feeDenom = decimal.NewFromInt(FeeDenominator)

// ValidFeeBps reports whether bps is an acceptable platform fee rate.
func ValidFeeBps(bps int64) bool {
	return bps >= 0 && bps <= MaxFeeBps
}

// SplitFee computes the platform fee and the seller's share of a
// price: fee = floor(price * feeBps / 10000), seller = price - fee.
// The two always sum back to price exactly.
//
// Division by 10^4 is exact in base-10 decimal, so Floor sees the
// precise quotient.
func SplitFee(price decimal.Decimal, feeBps int64) (fee, seller decimal.Decimal) {
	fee = price.Mul(decimal.NewFromInt(feeBps)).Div(feeDenom).Floor()
	seller = price.Sub(fee)
	return fee, seller
}
