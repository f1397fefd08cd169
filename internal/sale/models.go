package sale

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseRequest is an incoming payment. Beneficiary defaults to the payer
// when empty (a bare payment). PaymentRef, when present, deduplicates client
// retries of the same payment.
type PurchaseRequest struct {
	Purchaser   string
	Beneficiary string
	Value       uint64
	PaymentRef  string
}

// Purchase is the committed record of one accepted payment: what was paid,
// what was issued, and at which rate and phase.
type Purchase struct {
	ID          uuid.UUID
	Purchaser   string
	Beneficiary string
	Value       uint64
	Amount      uint64
	Rate        uint64
	PhaseIndex  int
	CreatedAt   time.Time
}

// Totals are the sale-wide running counters. They only grow, and only on a
// committed purchase.
type Totals struct {
	TotalRaised uint64
	TotalIssued uint64
}
