package events

import "time"

// Event is an entry in the sale's observable log. The core produces these
// post-commit; they are telemetry for outside observers, not owned state.
type Event interface {
	EventType() string
}

// Envelope is what sinks serialize: the event payload plus emission metadata.
type Envelope struct {
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Payload Event     `json:"payload"`
}

// PhaseAdded is emitted when a phase passes validation and is appended.
type PhaseAdded struct {
	Sender    string `json:"sender"`
	StartDate uint64 `json:"start_date"`
	EndDate   uint64 `json:"end_date"`
	PriceUSDc uint64 `json:"price_usdc"`
	Cap       uint64 `json:"cap"`
}

func (PhaseAdded) EventType() string { return "PhaseAdded" }

// PhaseDeleted is emitted when a phase is removed by position.
type PhaseDeleted struct {
	Sender string `json:"sender"`
	Index  int    `json:"index"`
}

func (PhaseDeleted) EventType() string { return "PhaseDeleted" }

// TokenPurchase is emitted once a purchase has fully committed: tokens minted,
// funds forwarded, counters updated.
type TokenPurchase struct {
	Purchaser   string `json:"purchaser"`
	Beneficiary string `json:"beneficiary"`
	Value       uint64 `json:"value"`
	Amount      uint64 `json:"amount"`
}

func (TokenPurchase) EventType() string { return "TokenPurchase" }

// OracleChanged is emitted when the exchange-rate gateway reference changes.
type OracleChanged struct {
	NewOracle string `json:"new_oracle"`
}

func (OracleChanged) EventType() string { return "OracleChanged" }

// WalletChanged is emitted when the receiving account changes.
type WalletChanged struct {
	NewWallet string `json:"new_wallet"`
}

func (WalletChanged) EventType() string { return "WalletChanged" }
