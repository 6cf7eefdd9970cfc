package transfer

import (
	"context"

	"stockbook/internal/core/types"
)

// Repository is the transfer summary storage contract.
type Repository interface {
	// Insert commits the summary row. A (source, destination) collision with
	// the uniqueness constraint must surface as a duplicate-transfer error.
	Insert(ctx context.Context, t *Transfer) error

	// SourceClosed reports whether any committed transfer carried p forward.
	// The ledger uses this to freeze movements in transferred-out periods.
	SourceClosed(ctx context.Context, p types.Period) (bool, error)

	List(ctx context.Context) ([]Transfer, error)
}
