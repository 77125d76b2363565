package payments

import "time"

// PaymentStatus is the receipt lifecycle state. The only transition is
// pending -> completed, performed exactly once by Resolve.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
)

// EntryType is the accounting side of a ledger entry.
type EntryType string

const (
	EntryCredit EntryType = "credit"
	EntryDebit  EntryType = "debit"
)

// Transaction categories written by this package.
const (
	CategoryPayment = "payment"
)

// Payment is an inbound mobile-money receipt.
type Payment struct {
	ID           int64         `json:"id"`
	MpesaCode    string        `json:"mpesa_code"`
	AmountCents  int64         `json:"amount"`
	Phone        string        `json:"phone"`
	BillRef      string        `json:"bill_ref"`
	FirstName    string        `json:"first_name,omitempty"`
	LastName     string        `json:"last_name,omitempty"`
	Status       PaymentStatus `json:"status"`
	SubscriberID *int64        `json:"subscriber_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	ResolvedAt   *time.Time    `json:"resolved_at,omitempty"`
}

// Transaction is an immutable ledger entry. Every balance mutation on a
// subscriber corresponds to exactly one Transaction, and
// BalanceAfter - BalanceBefore always equals the signed amount.
type Transaction struct {
	ID            string    `json:"id"`
	SubscriberID  int64     `json:"subscriber_id"`
	AmountCents   int64     `json:"amount"`
	Type          EntryType `json:"type"`
	Category      string    `json:"category"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	PaymentID     *int64    `json:"payment_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Filter narrows the pending queue. Search is a case-insensitive substring
// match over the receipt's mpesa_code, phone and last_name (a free-text
// reference populated from the bill reference). It is an operator search
// convenience, never an automatic matching rule.
type Filter struct {
	Search string
	Limit  int
}
