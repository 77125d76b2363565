// Package payments reconciles unmatched mobile-money receipts against
// subscriber accounts.
//
// # Overview
//
// The payment gateway webhook (out of scope here) records receipts it cannot
// auto-match as pending. An operator searches the pending queue, picks the
// right subscriber, and resolves the receipt. Resolving is at-most-once:
// a per-payment in-flight guard stops double-clicks, and the store performs
// a compare-and-set on the payment status inside the same database
// transaction that appends the ledger credit and moves the balance.
//
// # Usage Example
//
//	pending, err := engine.ListPending(ctx, payments.Filter{Search: "QGH7"})
//	tx, err := engine.Resolve(ctx, paymentID, subscriberID)
//	if errors.Is(err, payments.ErrAlreadyResolved) {
//		// surface "this receipt was already linked"
//	}
package payments
