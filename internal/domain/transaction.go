package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusPaid      TransactionStatus = "paid"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusExpired   TransactionStatus = "expired"
)

// PendingTTL is the window a pending transaction stays payable after creation.
const PendingTTL = 10 * time.Minute

type Transaction struct {
	ID        string
	Amount    decimal.Decimal
	Items     []json.RawMessage
	Status    TransactionStatus
	CreatedAt time.Time
	ExpiresAt time.Time
	PaidAt    *time.Time
}

// ExpiredBy reports whether the record is a stale pending transaction at the
// given instant. A pay attempt exactly at the deadline is still accepted.
func (t Transaction) ExpiredBy(now time.Time) bool {
	return t.Status == TransactionStatusPending && now.After(t.ExpiresAt)
}

type TransactionStats struct {
	Total   int64
	Paid    int64
	Pending int64
}
