package phase

// Phase is a time-bounded sale window with its own unit price and issuance
// cap. Timestamps are unix seconds; money is USD cents; token amounts are in
// the asset's smallest unit. All fields are unsigned by construction.
//
// Invariants: StartDate < EndDate; stored [StartDate, EndDate) intervals are
// pairwise disjoint; Issued never exceeds Cap and only grows, only through the
// purchase engine.
type Phase struct {
	StartDate uint64
	EndDate   uint64
	PriceUSDc uint64
	Cap       uint64
	Issued    uint64
}

// Contains reports whether now falls inside the phase's half-open window.
// The start instant belongs to the phase, the end instant does not, so a phase
// ending at T and one starting at T are adjacent, never both active.
func (p Phase) Contains(now uint64) bool {
	return p.StartDate <= now && now < p.EndDate
}

// Remaining is the issuance capacity still available in this phase.
func (p Phase) Remaining() uint64 {
	return p.Cap - p.Issued
}

// Overlaps reports whether [s, e) intersects the phase's window. Touching at
// an endpoint does not count.
func (p Phase) Overlaps(s, e uint64) bool {
	return s < p.EndDate && p.StartDate < e
}
