// Package transfer provides the end-of-period stock carry-forward service.
package transfer

import (
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/product"
)

// Transfer summarizes one committed carry-forward. At most one exists per
// (source, destination) pair; the storage layer enforces this with a
// uniqueness constraint, not just an application pre-check.
type Transfer struct {
	ID                id.ID        `db:"id" json:"id"`
	SourcePeriod      types.Period `db:"source_period" json:"sourcePeriod"`
	DestinationPeriod types.Period `db:"destination_period" json:"destinationPeriod"`
	ProductCount      int          `db:"product_count" json:"productCount"`
	Actor             string       `db:"actor" json:"actor"`
	CreatedAt         time.Time    `db:"created_at" json:"createdAt"`
}

// Candidate is one (product, quantity) pair a transfer would carry forward.
type Candidate struct {
	Product  product.Product `json:"product"`
	Quantity types.Quantity  `json:"quantity"`
}
