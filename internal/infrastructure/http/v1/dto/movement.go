package dto

import (
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/movement"
)

// dateLayout is the wire format for ledger dates. Movement dates carry no
// time-of-day meaning; ordering within a day comes from createdAt.
const dateLayout = "2006-01-02"

// --- Requests ---

// AppendMovementRequest for recording a new ledger movement.
type AppendMovementRequest struct {
	ProductID    string         `json:"productId" binding:"required"`
	Kind         string         `json:"kind" binding:"required"`
	Quantity     types.Quantity `json:"quantity" binding:"required"`
	MovementDate string         `json:"movementDate" binding:"required"`
	LotNumber    string         `json:"lotNumber"`
	ExpiryDate   string         `json:"expiryDate"`
	UnitPrice    types.Money    `json:"unitPrice"`
	Reference    string         `json:"reference"`
}

// ToMovement converts the request into a domain movement.
func (r AppendMovementRequest) ToMovement() (*movement.Movement, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return nil, apperror.NewValidation("invalid productId format")
	}

	date, err := time.Parse(dateLayout, r.MovementDate)
	if err != nil {
		return nil, apperror.NewValidation("invalid movementDate, expected YYYY-MM-DD")
	}

	m := &movement.Movement{
		ProductID:    productID,
		Kind:         movement.Kind(r.Kind),
		Quantity:     r.Quantity,
		MovementDate: date,
		LotNumber:    r.LotNumber,
		UnitPrice:    r.UnitPrice,
		Reference:    r.Reference,
	}

	if r.ExpiryDate != "" {
		expiry, err := time.Parse(dateLayout, r.ExpiryDate)
		if err != nil {
			return nil, apperror.NewValidation("invalid expiryDate, expected YYYY-MM-DD")
		}
		m.ExpiryDate = &expiry
	}

	return m, nil
}

// EditMovementRequest for a guarded edit. Absent fields keep current values.
type EditMovementRequest struct {
	ProductID    *string         `json:"productId"`
	Kind         *string         `json:"kind"`
	Quantity     *types.Quantity `json:"quantity"`
	MovementDate *string         `json:"movementDate"`
	LotNumber    *string         `json:"lotNumber"`
	ExpiryDate   *string         `json:"expiryDate"`
	ClearExpiry  bool            `json:"clearExpiry"`
	UnitPrice    *types.Money    `json:"unitPrice"`
	Reference    *string         `json:"reference"`
}

// ToChanges converts the request into a domain change set.
func (r EditMovementRequest) ToChanges() (movement.Changes, error) {
	var c movement.Changes

	if r.ProductID != nil {
		productID, err := id.Parse(*r.ProductID)
		if err != nil {
			return c, apperror.NewValidation("invalid productId format")
		}
		c.ProductID = &productID
	}
	if r.Kind != nil {
		kind := movement.Kind(*r.Kind)
		c.Kind = &kind
	}
	c.Quantity = r.Quantity
	if r.MovementDate != nil {
		date, err := time.Parse(dateLayout, *r.MovementDate)
		if err != nil {
			return c, apperror.NewValidation("invalid movementDate, expected YYYY-MM-DD")
		}
		c.MovementDate = &date
	}
	c.LotNumber = r.LotNumber
	if r.ExpiryDate != nil {
		expiry, err := time.Parse(dateLayout, *r.ExpiryDate)
		if err != nil {
			return c, apperror.NewValidation("invalid expiryDate, expected YYYY-MM-DD")
		}
		c.ExpiryDate = &expiry
	}
	c.ClearExpiry = r.ClearExpiry
	c.UnitPrice = r.UnitPrice
	c.Reference = r.Reference

	return c, nil
}

// --- Responses ---

// MovementResponse is one ledger row on the wire.
type MovementResponse struct {
	ID           string         `json:"id"`
	ProductID    string         `json:"productId"`
	Kind         string         `json:"kind"`
	Quantity     types.Quantity `json:"quantity"`
	MovementDate string         `json:"movementDate"`
	Period       string         `json:"period"`
	LotNumber    string         `json:"lotNumber,omitempty"`
	ExpiryDate   *string        `json:"expiryDate,omitempty"`
	UnitPrice    types.Money    `json:"unitPrice"`
	TotalValue   types.Money    `json:"totalValue"`
	Reference    string         `json:"reference,omitempty"`
	Actor        string         `json:"actor"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// FromMovement creates MovementResponse from a domain movement.
func FromMovement(m movement.Movement) MovementResponse {
	resp := MovementResponse{
		ID:           m.ID.String(),
		ProductID:    m.ProductID.String(),
		Kind:         string(m.Kind),
		Quantity:     m.Quantity,
		MovementDate: m.MovementDate.Format(dateLayout),
		Period:       m.Period.String(),
		LotNumber:    m.LotNumber,
		UnitPrice:    m.UnitPrice,
		TotalValue:   m.TotalValue,
		Reference:    m.Reference,
		Actor:        m.Actor,
		CreatedAt:    m.CreatedAt,
	}
	if m.ExpiryDate != nil {
		expiry := m.ExpiryDate.Format(dateLayout)
		resp.ExpiryDate = &expiry
	}
	return resp
}

// FromMovements maps a slice of domain movements.
func FromMovements(movements []movement.Movement) []MovementResponse {
	out := make([]MovementResponse, len(movements))
	for i, m := range movements {
		out[i] = FromMovement(m)
	}
	return out
}
