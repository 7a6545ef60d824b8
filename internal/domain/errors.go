package domain

import "errors"

// FailureClass partitions every operation failure into the three
// classes callers can react to. Whatever the class, the failed
// operation leaves zero state change behind; there is no automatic
// retry anywhere.
type FailureClass int

const (
	// FailurePrecondition: wrong caller, inactive entity, unsupported
	// token, out-of-bound price/duration/fee, missing approval.
	FailurePrecondition FailureClass = iota + 1

	// FailurePayment: bad tender, insufficient allowance/balance, or a
	// payment rail rejecting a transfer.
	FailurePayment

	// FailureAssetTransfer: the asset registry rejected the move, e.g.
	// stale ownership detected at settlement.
	FailureAssetTransfer
)

// ClassifiedError is implemented by errors that know their failure
// class.
type ClassifiedError interface {
	error
	Class() FailureClass
}

// ClassOf returns the failure class of err, or 0 if it carries none.
func ClassOf(err error) FailureClass {
	var ce ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class()
	}
	return 0
}

// IsPrecondition reports whether err is a precondition violation.
func IsPrecondition(err error) bool { return ClassOf(err) == FailurePrecondition }

// IsPaymentFailure reports whether err is a payment failure.
func IsPaymentFailure(err error) bool { return ClassOf(err) == FailurePayment }

// IsAssetTransferFailure reports whether err is an asset transfer failure.
func IsAssetTransferFailure(err error) bool { return ClassOf(err) == FailureAssetTransfer }

// PreconditionError aborts an operation before any side effect.
type PreconditionError struct {
	Op  string // operation that failed (e.g. "buy_nft")
	Err error  // underlying sentinel
}

func (e *PreconditionError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PreconditionError) Class() FailureClass { return FailurePrecondition }

func (e *PreconditionError) Unwrap() error { return e.Err }

// PaymentError reports a failure on either payment rail. Any payment
// already executed within the operation has been rolled back.
type PaymentError struct {
	Op  string
	Err error
}

func (e *PaymentError) Error() string {
	return e.Op + ": payment: " + e.Err.Error()
}

func (e *PaymentError) Class() FailureClass { return FailurePayment }

func (e *PaymentError) Unwrap() error { return e.Err }

// AssetTransferError reports the registry rejecting the asset move.
// Payment and ledger mutations of the operation have been rolled back.
type AssetTransferError struct {
	Op  string
	Err error
}

func (e *AssetTransferError) Error() string {
	return e.Op + ": asset transfer: " + e.Err.Error()
}

func (e *AssetTransferError) Class() FailureClass { return FailureAssetTransfer }

func (e *AssetTransferError) Unwrap() error { return e.Err }

var (
	// ErrUnknownListing is returned when a listing id does not exist.
	ErrUnknownListing = errors.New("unknown listing")

	// ErrUnknownOffer is returned when an offer id does not exist.
	ErrUnknownOffer = errors.New("unknown offer")

	// ErrNotActive is returned when the target listing or offer has
	// already been deactivated.
	ErrNotActive = errors.New("not active")

	// ErrNotOwner is returned when the caller is not the asset's
	// current registry-reported owner.
	ErrNotOwner = errors.New("caller is not the asset owner")

	// ErrNotSeller is returned when someone other than the listing's
	// seller tries to mutate it.
	ErrNotSeller = errors.New("caller is not the seller")

	// ErrNotBuyer is returned when someone other than the offer's
	// buyer tries to cancel it.
	ErrNotBuyer = errors.New("caller is not the buyer")

	// ErrNotAdmin guards the administrative surface.
	ErrNotAdmin = errors.New("caller is not the marketplace admin")

	// ErrNotApproved is returned when the marketplace lacks transfer
	// authorization for the asset.
	ErrNotApproved = errors.New("marketplace not approved for asset")

	// ErrUnsupportedToken is returned for payment tokens outside the
	// allow-list.
	ErrUnsupportedToken = errors.New("unsupported payment token")

	// ErrInvalidPrice rejects non-positive prices.
	ErrInvalidPrice = errors.New("price must be positive")

	// ErrInvalidDuration rejects offer durations outside (0, 30 days].
	ErrInvalidDuration = errors.New("offer duration out of bounds")

	// ErrOfferExpired is returned when accepting an offer at or after
	// its expiry instant.
	ErrOfferExpired = errors.New("offer expired")

	// ErrStaleOwnership is returned when a listing's stored seller no
	// longer owns the asset (out-of-band transfer).
	ErrStaleOwnership = errors.New("stale listing: seller no longer owns asset")

	// ErrBadTender is returned when the tendered native value does not
	// equal the required amount, or value is tendered on a fungible
	// rail.
	ErrBadTender = errors.New("tendered value does not match price")

	// ErrInsufficientAllowance is returned at offer creation when the
	// buyer's token allowance cannot cover the offer price.
	ErrInsufficientAllowance = errors.New("insufficient token allowance")

	// ErrFeeTooHigh rejects fee rates above MaxFeeBps.
	ErrFeeTooHigh = errors.New("fee exceeds maximum")

	// ErrProtectedToken is returned on attempts to remove the native
	// sentinel from the supported set.
	ErrProtectedToken = errors.New("native token cannot be removed")

	// ErrUnknownAsset is returned when the registry cannot resolve the
	// asset's owner.
	ErrUnknownAsset = errors.New("unknown asset")
)
