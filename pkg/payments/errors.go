package payments

import "errors"

var (
	// ErrNotFound indicates an unknown payment.
	ErrNotFound = errors.New("payment not found")

	// ErrAlreadyResolved indicates the receipt was already linked to a
	// subscriber. No second Transaction is ever created.
	ErrAlreadyResolved = errors.New("payment already resolved")

	// ErrResolveInFlight indicates another resolve call for the same payment
	// has not settled yet.
	ErrResolveInFlight = errors.New("resolve already in progress for this payment")
)
