package movement

import (
	"context"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Filter narrows ledger listings.
type Filter struct {
	ProductID *id.ID
	Kind      *Kind
	Period    *types.Period
	DateFrom  *time.Time
	DateTo    *time.Time
	LotOnly   bool

	Limit  int
	Offset int
}

// KindTotal aggregates quantity and value for one movement kind.
type KindTotal struct {
	Quantity types.Quantity
	Value    types.Money
}

// Repository is the ledger's storage contract. Mutations are expected to run
// inside a transaction started by the service; reads issued within that
// transaction observe its uncommitted state.
type Repository interface {
	Insert(ctx context.Context, m *Movement) error
	InsertBatch(ctx context.Context, movements []Movement) error
	Update(ctx context.Context, m *Movement) error
	Delete(ctx context.Context, movementID id.ID) error

	GetByID(ctx context.Context, movementID id.ID) (*Movement, error)
	List(ctx context.Context, f Filter) ([]Movement, error)
	Count(ctx context.Context, f Filter) (int64, error)

	// SumSignedQuantity folds the signed-effect table over a product's
	// movements, optionally bounded by movementDate <= until.
	SumSignedQuantity(ctx context.Context, productID id.ID, until *time.Time) (types.Quantity, error)

	// SumSignedQuantityByProduct returns the signed fold per product in one
	// pass, optionally bounded by movementDate <= until. Used by alerting,
	// dashboard reads and the period-transfer candidate computation.
	SumSignedQuantityByProduct(ctx context.Context, until *time.Time) (map[id.ID]types.Quantity, error)

	// ListLotMovements returns a product's lot-tagged ENTRY/EXIT movements in
	// chronological order. Pass id.Nil() for all products.
	ListLotMovements(ctx context.Context, productID id.ID) ([]Movement, error)

	// LotRemaining folds ENTRY minus EXIT for one (product, lot) key.
	LotRemaining(ctx context.Context, productID id.ID, lotNumber string) (types.Quantity, error)

	// AggregateKinds sums quantity and total value per kind for a period.
	AggregateKinds(ctx context.Context, period types.Period) (map[Kind]KindTotal, error)
}
