// Package lot derives per-lot remaining quantities and FEFO availability.
//
// Lots have no storage identity of their own: a lot is the group of ENTRY and
// EXIT movements sharing a (product, lot number) key. ADJUSTMENT, OPENING and
// WRITE_OFF movements are lot-less by construction and never appear here.
package lot

import (
	"context"
	"sort"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/movement"
)

// Lot is a derived view of one (product, lot number) batch.
type Lot struct {
	ProductID id.ID  `json:"productId"`
	LotNumber string `json:"lotNumber"`

	// Remaining = sum of ENTRY quantities minus sum of EXIT quantities.
	Remaining types.Quantity `json:"remaining"`

	// ExpiryDate and UnitPrice come from the most recent ENTRY into the lot.
	ExpiryDate *time.Time  `json:"expiryDate,omitempty"`
	UnitPrice  types.Money `json:"unitPrice"`
}

// Available reports whether the lot can serve an allocation.
func (l Lot) Available() bool {
	return l.Remaining.IsPositive()
}

type lotKey struct {
	productID id.ID
	lotNumber string
}

// Derive groups lot-tagged ENTRY/EXIT movements into lots. Two receiving
// events that reuse the same lot number merge into one lot; that matches the
// free-text lot identity of the ledger.
func Derive(movements []movement.Movement) []Lot {
	type accum struct {
		lot       Lot
		entryDate time.Time
		entrySeq  time.Time // createdAt tie-break for same-day entries
	}

	byKey := make(map[lotKey]*accum)
	var order []lotKey

	for i := range movements {
		m := &movements[i]
		if !m.HasLot() {
			continue
		}
		key := lotKey{productID: m.ProductID, lotNumber: m.LotNumber}
		acc, ok := byKey[key]
		if !ok {
			acc = &accum{lot: Lot{ProductID: m.ProductID, LotNumber: m.LotNumber}}
			byKey[key] = acc
			order = append(order, key)
		}

		switch m.Kind {
		case movement.KindEntry:
			acc.lot.Remaining += m.Quantity
			if laterEntry(m, acc.entryDate, acc.entrySeq) {
				acc.entryDate = m.MovementDate
				acc.entrySeq = m.CreatedAt
				acc.lot.UnitPrice = m.UnitPrice
				if m.ExpiryDate != nil {
					t := *m.ExpiryDate
					acc.lot.ExpiryDate = &t
				} else {
					acc.lot.ExpiryDate = nil
				}
			}
		case movement.KindExit:
			acc.lot.Remaining -= m.Quantity
		}
	}

	lots := make([]Lot, 0, len(order))
	for _, key := range order {
		lots = append(lots, byKey[key].lot)
	}
	return lots
}

func laterEntry(m *movement.Movement, lastDate, lastSeq time.Time) bool {
	if lastDate.IsZero() {
		return true
	}
	if m.MovementDate.After(lastDate) {
		return true
	}
	if m.MovementDate.Equal(lastDate) && m.CreatedAt.After(lastSeq) {
		return true
	}
	return false
}

// Available filters to lots with remaining > 0 and sorts them FEFO:
// ascending expiry date, lots without expiry last, ties broken by lot number
// so the ordering is deterministic.
func Available(lots []Lot) []Lot {
	out := make([]Lot, 0, len(lots))
	for _, l := range lots {
		if l.Available() {
			out = append(out, l)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate == nil:
			return a.LotNumber < b.LotNumber
		case a.ExpiryDate == nil:
			return false
		case b.ExpiryDate == nil:
			return true
		case a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.LotNumber < b.LotNumber
		default:
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
	})
	return out
}

// Tracker reads lot state from the ledger.
type Tracker struct {
	movements movement.Repository
}

// NewTracker creates a lot tracker.
func NewTracker(movements movement.Repository) *Tracker {
	return &Tracker{movements: movements}
}

// AvailableLots returns a product's FEFO-ordered allocatable lots.
func (t *Tracker) AvailableLots(ctx context.Context, productID id.ID) ([]Lot, error) {
	ms, err := t.movements.ListLotMovements(ctx, productID)
	if err != nil {
		return nil, err
	}
	return Available(Derive(ms)), nil
}

// Lots returns all of a product's derived lots, exhausted ones included.
func (t *Tracker) Lots(ctx context.Context, productID id.ID) ([]Lot, error) {
	ms, err := t.movements.ListLotMovements(ctx, productID)
	if err != nil {
		return nil, err
	}
	return Derive(ms), nil
}

// AllAvailable returns every product's allocatable lots in one read,
// for the alert engine's expiry partitioning.
func (t *Tracker) AllAvailable(ctx context.Context) ([]Lot, error) {
	ms, err := t.movements.ListLotMovements(ctx, id.Nil())
	if err != nil {
		return nil, err
	}
	return Available(Derive(ms)), nil
}

// Remaining folds one (product, lot) key.
func (t *Tracker) Remaining(ctx context.Context, productID id.ID, lotNumber string) (types.Quantity, error) {
	return t.movements.LotRemaining(ctx, productID, lotNumber)
}
