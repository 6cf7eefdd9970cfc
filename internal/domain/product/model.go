// Package product provides the product catalog owned configuration.
// Current stock and stock value are NOT stored here: both are derived views
// recomputed from the movement ledger on read.
package product

import (
	"strings"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Product holds operator-owned configuration for one tracked product.
type Product struct {
	ID     id.ID  `db:"id" json:"id"`
	Code   string `db:"code" json:"code"`
	Name   string `db:"name" json:"name"`
	Active bool   `db:"active" json:"active"`

	// AlertThreshold is the low-stock boundary; zero disables the alert.
	AlertThreshold types.Quantity `db:"alert_threshold" json:"alertThreshold"`

	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks required fields.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return apperror.NewValidation("code is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required")
	}
	if p.AlertThreshold.IsNegative() {
		return apperror.NewValidation("alert threshold must not be negative")
	}
	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative")
	}
	return nil
}
