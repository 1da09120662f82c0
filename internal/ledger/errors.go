package ledger

import "errors"

var (
	ErrNotFound            = errors.New("ledger: token not found")
	ErrUnauthorized        = errors.New("ledger: unauthorized")
	ErrNotOwner            = errors.New("ledger: caller is not the owner")
	ErrNotApproved         = errors.New("ledger: caller is not approved")
	ErrInvalidCreator      = errors.New("ledger: invalid creator address")
	ErrInvalidReceiver     = errors.New("ledger: invalid receiver address")
	ErrInvalidURI          = errors.New("ledger: token uri must not be empty")
	ErrInvalidAmount       = errors.New("ledger: amount must be positive")
	ErrInvalidRate         = errors.New("ledger: royalty rate exceeds maximum")
	ErrSupplyExceeded      = errors.New("ledger: mint exceeds max supply")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrTransferRejected    = errors.New("ledger: transfer rejected by receiver")
)
