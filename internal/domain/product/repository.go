package product

import (
	"context"

	"stockbook/internal/core/id"
)

// Filter narrows product listings.
type Filter struct {
	ActiveOnly bool
	Search     string // matches code or name, case-insensitive

	Limit  int
	Offset int
}

// Repository is the product catalog storage contract.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error

	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context, f Filter) ([]Product, error)
	Count(ctx context.Context, f Filter) (int64, error)

	// GetForUpdate loads the product with a row-level lock. Must be called
	// inside a transaction; it is how per-product write serialization is
	// enforced across the ledger.
	GetForUpdate(ctx context.Context, productID id.ID) (*Product, error)
}
