package dto

import (
	"time"

	"stockbook/internal/core/types"
	"stockbook/internal/domain/product"
)

// CreateProductRequest for registering a new product.
type CreateProductRequest struct {
	Code           string         `json:"code" binding:"required"`
	Name           string         `json:"name" binding:"required"`
	AlertThreshold types.Quantity `json:"alertThreshold"`
	UnitPrice      types.Money    `json:"unitPrice"`
}

// ToProduct converts the request into a domain product.
func (r CreateProductRequest) ToProduct() *product.Product {
	return &product.Product{
		Code:           r.Code,
		Name:           r.Name,
		AlertThreshold: r.AlertThreshold,
		UnitPrice:      r.UnitPrice,
	}
}

// UpdateProductRequest for changing product configuration.
type UpdateProductRequest struct {
	Code           string         `json:"code" binding:"required"`
	Name           string         `json:"name" binding:"required"`
	AlertThreshold types.Quantity `json:"alertThreshold"`
	UnitPrice      types.Money    `json:"unitPrice"`
}

// SetActiveRequest toggles the product lifecycle flag.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ProductResponse is one catalog row on the wire.
type ProductResponse struct {
	ID             string         `json:"id"`
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	Active         bool           `json:"active"`
	AlertThreshold types.Quantity `json:"alertThreshold"`
	UnitPrice      types.Money    `json:"unitPrice"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// FromProduct creates ProductResponse from a domain product.
func FromProduct(p product.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID.String(),
		Code:           p.Code,
		Name:           p.Name,
		Active:         p.Active,
		AlertThreshold: p.AlertThreshold,
		UnitPrice:      p.UnitPrice,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// FromProducts maps a slice of domain products.
func FromProducts(products []product.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = FromProduct(p)
	}
	return out
}
