package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/domain/models"
	"github.com/mamadbah2/brownie/internal/service/history"
	"github.com/mamadbah2/brownie/internal/service/sales"
)

// idempotencyHeader carries the caller's request key. Retries of one sale
// must send the same value; without it every request is a new sale.
const idempotencyHeader = "Idempotency-Key"

type saleRequest struct {
	Client      string           `json:"cliente" validate:"required"`
	Category    string           `json:"categoria_produto" validate:"required"`
	Units       int              `json:"qtd_unidades" validate:"gt=0"`
	UnitPrice   *float64         `json:"valor_unitario" validate:"omitempty,gt=0"`
	Paid        *bool            `json:"status_pagamento" validate:"required"`
	SaleDate    models.Timestamp `json:"data_venda" validate:"required"`
	DueDate     models.Timestamp `json:"data_vencimento" validate:"required"`
	TotalAmount float64          `json:"valor_total" validate:"gte=0"`
}

func (r *saleRequest) normalize() {
	r.Client = strings.TrimSpace(r.Client)
	r.Category = strings.TrimSpace(r.Category)
	// A zero price means "not informed" and is filled from stock.
	if r.UnitPrice != nil && *r.UnitPrice == 0 {
		r.UnitPrice = nil
	}
}

func (r saleRequest) toSale() models.Sale {
	return models.Sale{
		Client:      r.Client,
		Category:    r.Category,
		Units:       r.Units,
		UnitPrice:   r.UnitPrice,
		Paid:        *r.Paid,
		SaleDate:    r.SaleDate,
		DueDate:     r.DueDate,
		TotalAmount: r.TotalAmount,
	}
}

// SalesHandler exposes sale recording and history.
type SalesHandler struct {
	recorder sales.Recorder
	history  history.Reader
	logger   *zap.Logger
}

// NewSalesHandler constructs the sales HTTP adapter.
func NewSalesHandler(recorder sales.Recorder, reader history.Reader, logger *zap.Logger) *SalesHandler {
	return &SalesHandler{recorder: recorder, history: reader, logger: orNop(logger)}
}

// RecordSale runs the sale workflow and returns the stored sale. The
// Idempotency-Key header identifies retries of the same sale.
func (h *SalesHandler) RecordSale(c *gin.Context) {
	var req saleRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	sale, err := h.recorder.RecordSale(c.Request.Context(), c.GetHeader(idempotencyHeader), req.toSale())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// History returns one page of a category's sales. The page comes from the
// path and an optional tamanho query parameter overrides the page size.
func (h *SalesHandler) History(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("pagina"))
	if err != nil {
		writeError(c, h.logger, apperror.Validation("a página deve ser um número inteiro", map[string]string{"pagina": "int"}))
		return
	}

	size := 0
	if raw := c.Query("tamanho"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil {
			writeError(c, h.logger, apperror.Validation("o tamanho da página deve ser um número inteiro", map[string]string{"tamanho": "int"}))
			return
		}
	}

	var req categoryRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}

	items, err := h.history.Paginate(c.Request.Context(), req.Category, page, size)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
