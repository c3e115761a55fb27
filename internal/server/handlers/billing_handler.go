package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/domain/models"
	"github.com/mamadbah2/brownie/internal/service/billing"
)

type payChargeRequest struct {
	Client  string           `json:"cliente" validate:"required"`
	DueDate models.Timestamp `json:"vencimento" validate:"required"`
	Amount  float64          `json:"valor" validate:"gt=0"`
}

func (r *payChargeRequest) normalize() { r.Client = strings.TrimSpace(r.Client) }

type createChargeRequest struct {
	Client   string            `json:"cliente" validate:"required"`
	DueDate  models.Timestamp  `json:"vencimento" validate:"required"`
	Amount   float64           `json:"valor" validate:"gt=0"`
	Paid     bool              `json:"status_pagamento"`
	SaleDate *models.Timestamp `json:"data_venda"`
}

func (r *createChargeRequest) normalize() { r.Client = strings.TrimSpace(r.Client) }

// BillingHandler exposes the billing ledger.
type BillingHandler struct {
	ledger billing.Ledger
	logger *zap.Logger
}

// NewBillingHandler constructs the billing HTTP adapter.
func NewBillingHandler(ledger billing.Ledger, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{ledger: ledger, logger: orNop(logger)}
}

// Pending returns the pending/overdue split of unpaid charges.
func (h *BillingHandler) Pending(c *gin.Context) {
	summary, err := h.ledger.SummarizePending(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Active lists unpaid charges with their computed status.
func (h *BillingHandler) Active(c *gin.Context) {
	views, err := h.ledger.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Paid lists settled charges.
func (h *BillingHandler) Paid(c *gin.Context) {
	views, err := h.ledger.ListPaid(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Pay settles the charge matching client, amount and due date.
func (h *BillingHandler) Pay(c *gin.Context) {
	var req payChargeRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	rows, err := h.ledger.MarkPaid(c.Request.Context(), req.Client, req.DueDate.Time, req.Amount)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Pagamento da cobrança para '%s' registrado com sucesso!", req.Client),
		Data:    rows,
	})
}

// Create registers a charge by hand.
func (h *BillingHandler) Create(c *gin.Context) {
	var req createChargeRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	charge, err := h.ledger.Create(c.Request.Context(), models.Charge{
		Paid:     req.Paid,
		Client:   req.Client,
		DueDate:  req.DueDate,
		SaleDate: req.SaleDate,
		Amount:   req.Amount,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, charge)
}
