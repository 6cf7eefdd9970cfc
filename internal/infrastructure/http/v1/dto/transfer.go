package dto

import (
	"time"

	"stockbook/internal/core/types"
	"stockbook/internal/domain/transfer"
)

// TransferRequest commits a period carry-forward.
type TransferRequest struct {
	SourcePeriod      string `json:"sourcePeriod" binding:"required"`
	DestinationPeriod string `json:"destinationPeriod" binding:"required"`
}

// TransferResponse is one committed carry-forward on the wire.
type TransferResponse struct {
	ID                string    `json:"id"`
	SourcePeriod      string    `json:"sourcePeriod"`
	DestinationPeriod string    `json:"destinationPeriod"`
	ProductCount      int       `json:"productCount"`
	Actor             string    `json:"actor"`
	CreatedAt         time.Time `json:"createdAt"`
}

// FromTransfer creates TransferResponse from a domain transfer.
func FromTransfer(t transfer.Transfer) TransferResponse {
	return TransferResponse{
		ID:                t.ID.String(),
		SourcePeriod:      t.SourcePeriod.String(),
		DestinationPeriod: t.DestinationPeriod.String(),
		ProductCount:      t.ProductCount,
		Actor:             t.Actor,
		CreatedAt:         t.CreatedAt,
	}
}

// FromTransfers maps a slice of domain transfers.
func FromTransfers(transfers []transfer.Transfer) []TransferResponse {
	out := make([]TransferResponse, len(transfers))
	for i, t := range transfers {
		out[i] = FromTransfer(t)
	}
	return out
}

// CandidateResponse is one (product, quantity) pair a transfer would carry.
type CandidateResponse struct {
	Product  ProductResponse `json:"product"`
	Quantity types.Quantity  `json:"quantity"`
}

// FromCandidates maps transfer preview candidates.
func FromCandidates(candidates []transfer.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, len(candidates))
	for i, c := range candidates {
		out[i] = CandidateResponse{
			Product:  FromProduct(c.Product),
			Quantity: c.Quantity,
		}
	}
	return out
}
