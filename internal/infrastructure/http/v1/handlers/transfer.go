package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/transfer"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// TransferHandler handles HTTP requests for period transfers.
type TransferHandler struct {
	*BaseHandler
	service *transfer.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(base *BaseHandler, service *transfer.Service) *TransferHandler {
	return &TransferHandler{BaseHandler: base, service: service}
}

// Preview handles GET /transfers/preview?source=YYYY-MM
// Advisory only: the commit recomputes candidates inside its transaction.
func (h *TransferHandler) Preview(c *gin.Context) {
	source, err := types.ParsePeriod(c.Query("source"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid source period, expected YYYY-MM"))
		return
	}

	candidates, err := h.service.Preview(c.Request.Context(), source)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"sourcePeriod": source.String(),
		"candidates":   dto.FromCandidates(candidates),
	})
}

// Create handles POST /transfers
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	source, err := types.ParsePeriod(req.SourcePeriod)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sourcePeriod, expected YYYY-MM"))
		return
	}
	destination, err := types.ParsePeriod(req.DestinationPeriod)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid destinationPeriod, expected YYYY-MM"))
		return
	}

	result, err := h.service.Transfer(c.Request.Context(), source, destination, h.GetActor(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(201, dto.FromTransfer(*result))
}

// List handles GET /transfers
func (h *TransferHandler) List(c *gin.Context) {
	transfers, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": dto.FromTransfers(transfers)})
}

// RegisterRoutes registers transfer routes.
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/preview", h.Preview)
	rg.POST("", h.Create)
	rg.GET("", h.List)
}
