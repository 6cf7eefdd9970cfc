// Package movement provides the append-only stock movement ledger.
package movement

// Kind is the enumerated movement kind. The signed-effect table below is the
// single source of truth for how each kind contributes to stock folds; every
// projector (current stock, as-of stock, lot accounting) goes through it.
type Kind string

const (
	KindEntry      Kind = "ENTRY"
	KindExit       Kind = "EXIT"
	KindAdjustment Kind = "ADJUSTMENT"
	KindOpening    Kind = "OPENING"
	KindWriteOff   Kind = "WRITE_OFF"
)

// Kinds lists all valid movement kinds.
func Kinds() []Kind {
	return []Kind{KindEntry, KindExit, KindAdjustment, KindOpening, KindWriteOff}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindEntry, KindExit, KindAdjustment, KindOpening, KindWriteOff:
		return true
	}
	return false
}

// Effect returns the sign applied to the raw quantity in stock folds:
// +1 for ENTRY, OPENING and ADJUSTMENT (the adjustment quantity is itself
// signed), -1 for EXIT and WRITE_OFF. Unknown kinds contribute nothing.
func (k Kind) Effect() int {
	switch k {
	case KindEntry, KindOpening, KindAdjustment:
		return 1
	case KindExit, KindWriteOff:
		return -1
	}
	return 0
}

// AllowsSignedQuantity reports whether the raw quantity may be negative.
// Only ADJUSTMENT carries a signed delta; all other kinds are magnitudes.
func (k Kind) AllowsSignedQuantity() bool {
	return k == KindAdjustment
}

// LotEligible reports whether movements of this kind may carry a lot number.
// ADJUSTMENT, OPENING and WRITE_OFF are lot-less by construction and never
// participate in lot accounting.
func (k Kind) LotEligible() bool {
	return k == KindEntry || k == KindExit
}
