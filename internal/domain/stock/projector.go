// Package stock derives stock levels from the movement ledger.
// Nothing here is stored: every figure is a fold over committed movements,
// which removes the lost-update class of bugs that cached stock columns have.
package stock

import (
	"context"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/movement"
	"stockbook/internal/domain/product"
)

// Level is a product's derived stock figure at a point in time.
type Level struct {
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	Value     types.Money    `json:"value"`
}

// Fold folds the canonical signed-effect table over movements.
// The final sum is order-independent; running balances are not (see Running).
func Fold(movements []movement.Movement) types.Quantity {
	var total types.Quantity
	for i := range movements {
		total += movements[i].SignedQuantity()
	}
	return total
}

// FoldAsOf folds only movements with movementDate on or before date.
// This is deliberately a date comparison, not a period-tag filter: a movement
// dated inside period M can be entered after M+1 has already started.
func FoldAsOf(movements []movement.Movement, date time.Time) types.Quantity {
	var total types.Quantity
	for i := range movements {
		if movements[i].MovementDate.After(date) {
			continue
		}
		total += movements[i].SignedQuantity()
	}
	return total
}

// Running returns the balance after each movement in the given storage order.
// Unlike the final fold, this sequence is order-dependent for movements that
// share a date: an EXIT placed before its same-day ENTRY dips negative even
// though the final balance is identical.
func Running(movements []movement.Movement) []types.Quantity {
	balances := make([]types.Quantity, len(movements))
	var total types.Quantity
	for i := range movements {
		total += movements[i].SignedQuantity()
		balances[i] = total
	}
	return balances
}

// Projector computes stock levels against the ledger's storage.
type Projector struct {
	movements movement.Repository
	products  product.Repository
}

// NewProjector creates a stock projector.
func NewProjector(movements movement.Repository, products product.Repository) *Projector {
	return &Projector{movements: movements, products: products}
}

// CurrentStock folds all of a product's movements.
func (p *Projector) CurrentStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return p.movements.SumSignedQuantity(ctx, productID, nil)
}

// StockAsOf folds movements with movementDate <= date. Required by the
// period transfer; strictly more general than CurrentStock.
func (p *Projector) StockAsOf(ctx context.Context, productID id.ID, date time.Time) (types.Quantity, error) {
	return p.movements.SumSignedQuantity(ctx, productID, &date)
}

// StockValue returns currentStock x the product's unit price.
func (p *Projector) StockValue(ctx context.Context, productID id.ID) (types.Money, error) {
	level, err := p.Level(ctx, productID)
	if err != nil {
		return types.ZeroMoney(), err
	}
	return level.Value, nil
}

// Level returns quantity and value in one read.
func (p *Projector) Level(ctx context.Context, productID id.ID) (Level, error) {
	prod, err := p.products.GetByID(ctx, productID)
	if err != nil {
		return Level{}, err
	}
	qty, err := p.movements.SumSignedQuantity(ctx, productID, nil)
	if err != nil {
		return Level{}, err
	}
	return Level{
		ProductID: productID,
		Quantity:  qty,
		Value:     qty.Decimal().Mul(prod.UnitPrice),
	}, nil
}
