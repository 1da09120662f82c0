package market

import "errors"

var (
	ErrPaused              = errors.New("market: engine is paused")
	ErrUnknownContract     = errors.New("market: token contract not registered")
	ErrUnauthorized        = errors.New("market: unauthorized")
	ErrInvalidPrice        = errors.New("market: price must be positive")
	ErrInvalidAmount       = errors.New("market: quantity must be positive")
	ErrNotOwner            = errors.New("market: seller does not own the token")
	ErrNotApproved         = errors.New("market: engine has no transfer approval")
	ErrInsufficientBalance = errors.New("market: seller balance below listed quantity")
	ErrListingNotFound     = errors.New("market: listing not found")
	ErrListingNotActive    = errors.New("market: listing is not active")
	ErrSelfPurchase        = errors.New("market: seller cannot buy their own listing")
	ErrWrongPayment        = errors.New("market: payment must equal the listing price")
	ErrFeeTooHigh          = errors.New("market: platform fee exceeds maximum")
	ErrInvalidRecipient    = errors.New("market: invalid fee recipient")
)
