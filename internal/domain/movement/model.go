package movement

import (
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Movement is a single recorded stock event. Movements are immutable once
// committed except through the ledger's guarded Edit/Delete operations.
type Movement struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`
	Kind      Kind  `db:"kind" json:"kind"`

	// Quantity is the raw quantity. A magnitude (> 0) for every kind except
	// ADJUSTMENT, which carries a signed delta.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	MovementDate time.Time    `db:"movement_date" json:"movementDate"`
	Period       types.Period `db:"period" json:"period"`

	// LotNumber ties ENTRY/EXIT movements to a lot. Empty means lot-less.
	LotNumber string `db:"lot_number" json:"lotNumber,omitempty"`

	// ExpiryDate is meaningful only on ENTRY and refreshes the lot's expiry.
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	UnitPrice  types.Money `db:"unit_price" json:"unitPrice"`
	TotalValue types.Money `db:"total_value" json:"totalValue"`

	// Reference annotates synthetic movements, e.g. the source period of an
	// OPENING produced by a period transfer.
	Reference string `db:"reference" json:"reference,omitempty"`

	Actor     string    `db:"actor" json:"actor"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// HasLot reports whether the movement participates in lot accounting.
func (m *Movement) HasLot() bool {
	return m.LotNumber != "" && m.Kind.LotEligible()
}

// SignedQuantity applies the canonical effect table to the raw quantity.
func (m *Movement) SignedQuantity() types.Quantity {
	return types.Quantity(int64(m.Quantity) * int64(m.Kind.Effect()))
}

// Normalize derives Period from MovementDate and TotalValue from
// Quantity x UnitPrice. Call before Validate.
func (m *Movement) Normalize() {
	if !m.MovementDate.IsZero() {
		m.Period = types.PeriodOf(m.MovementDate)
	}
	m.TotalValue = m.Quantity.Decimal().Mul(m.UnitPrice)
}

// Validate checks required fields and kind-specific rules.
func (m *Movement) Validate() error {
	if id.IsNil(m.ProductID) {
		return apperror.NewValidation("productId is required")
	}
	if !m.Kind.Valid() {
		return apperror.NewValidation("unknown movement kind").WithDetail("kind", string(m.Kind))
	}
	if m.MovementDate.IsZero() {
		return apperror.NewValidation("movementDate is required")
	}
	if m.Quantity.IsZero() {
		return apperror.NewValidation("quantity must not be zero")
	}
	if m.Quantity.IsNegative() && !m.Kind.AllowsSignedQuantity() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("kind", string(m.Kind))
	}
	if m.LotNumber != "" && !m.Kind.LotEligible() {
		return apperror.NewValidation("lot number is only allowed on ENTRY and EXIT movements").
			WithDetail("kind", string(m.Kind))
	}
	if m.ExpiryDate != nil {
		if m.Kind != KindEntry {
			return apperror.NewValidation("expiry date is only meaningful on ENTRY movements").
				WithDetail("kind", string(m.Kind))
		}
		if m.LotNumber == "" {
			return apperror.NewValidation("expiry date requires a lot number")
		}
	}
	if m.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative")
	}
	return nil
}

// Changes describes a guarded edit. Nil fields keep the current value.
type Changes struct {
	ProductID    *id.ID          `json:"productId,omitempty"`
	Kind         *Kind           `json:"kind,omitempty"`
	Quantity     *types.Quantity `json:"quantity,omitempty"`
	MovementDate *time.Time      `json:"movementDate,omitempty"`
	LotNumber    *string         `json:"lotNumber,omitempty"`
	ExpiryDate   *time.Time      `json:"expiryDate,omitempty"`
	ClearExpiry  bool            `json:"clearExpiry,omitempty"`
	UnitPrice    *types.Money    `json:"unitPrice,omitempty"`
	Reference    *string         `json:"reference,omitempty"`
}

// Apply copies the non-nil changes onto a copy of m and returns it.
func (c Changes) Apply(m Movement) Movement {
	if c.ProductID != nil {
		m.ProductID = *c.ProductID
	}
	if c.Kind != nil {
		m.Kind = *c.Kind
	}
	if c.Quantity != nil {
		m.Quantity = *c.Quantity
	}
	if c.MovementDate != nil {
		m.MovementDate = *c.MovementDate
	}
	if c.LotNumber != nil {
		m.LotNumber = *c.LotNumber
	}
	if c.ExpiryDate != nil {
		t := *c.ExpiryDate
		m.ExpiryDate = &t
	}
	if c.ClearExpiry {
		m.ExpiryDate = nil
	}
	if c.UnitPrice != nil {
		m.UnitPrice = *c.UnitPrice
	}
	if c.Reference != nil {
		m.Reference = *c.Reference
	}
	return m
}
