package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/service/stock"
)

type categoryRequest struct {
	Category string `json:"categoria" validate:"required"`
}

func (r *categoryRequest) normalize() { r.Category = strings.TrimSpace(r.Category) }

type setStockRequest struct {
	Category string `json:"categoria" validate:"required"`
	Quantity *int   `json:"quantidade" validate:"required,gte=0"`
}

func (r *setStockRequest) normalize() { r.Category = strings.TrimSpace(r.Category) }

type addStockRequest struct {
	Category string `json:"categoria" validate:"required"`
	Delta    *int   `json:"quantidade" validate:"required"`
}

func (r *addStockRequest) normalize() { r.Category = strings.TrimSpace(r.Category) }

type productStockRequest struct {
	Quantity *int `json:"quantidade" validate:"required,gte=0"`
}

type productAddRequest struct {
	Quantity int `json:"quantidade" validate:"gt=0"`
}

type stockData struct {
	Category string `json:"categoria"`
	Quantity int    `json:"quantidade"`
}

// StockHandler exposes the stock ledger over HTTP.
type StockHandler struct {
	ledger stock.Ledger
	logger *zap.Logger
}

// NewStockHandler constructs the stock HTTP adapter.
func NewStockHandler(ledger stock.Ledger, logger *zap.Logger) *StockHandler {
	return &StockHandler{ledger: ledger, logger: orNop(logger)}
}

// SetQuantity upserts the absolute quantity of a category.
func (h *StockHandler) SetQuantity(c *gin.Context) {
	var req setStockRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	quantity, err := h.ledger.SetQuantity(c.Request.Context(), req.Category, *req.Quantity)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Estoque da categoria '%s' atualizado com sucesso.", req.Category),
		Data:    stockData{Category: req.Category, Quantity: quantity},
	})
}

// AddQuantity adds a signed delta to a category.
func (h *StockHandler) AddQuantity(c *gin.Context) {
	var req addStockRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	quantity, err := h.ledger.AddQuantity(c.Request.Context(), req.Category, *req.Delta)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Estoque da categoria '%s' incrementado com sucesso.", req.Category),
		Data:    stockData{Category: req.Category, Quantity: quantity},
	})
}

// GetQuantity returns the bare quantity of a category.
func (h *StockHandler) GetQuantity(c *gin.Context) {
	var req categoryRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	quantity, err := h.ledger.GetQuantity(c.Request.Context(), req.Category)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, quantity)
}

// ListAll returns every (categoria, quantidade) pair.
func (h *StockHandler) ListAll(c *gin.Context) {
	levels, err := h.ledger.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, levels)
}

// ListCategories returns every category name.
func (h *StockHandler) ListCategories(c *gin.Context) {
	names, err := h.ledger.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

// UnitPrice returns the last known unit price. Unknown is 404, a failed
// lookup is 503.
func (h *StockHandler) UnitPrice(c *gin.Context) {
	var req categoryRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	category := req.Category
	lookup := h.ledger.LookupUnitPrice(c.Request.Context(), category)
	switch lookup.Outcome {
	case stock.PriceKnown:
		c.JSON(http.StatusOK, lookup.Price)
	case stock.PriceUnknown:
		writeError(c, h.logger, apperror.NotFound("A categoria '%s' não foi encontrada no estoque.", category))
	default:
		writeError(c, h.logger, apperror.Wrap(apperror.KindUnavailable, lookup.Err,
			"não foi possível obter o preço unitário de '%s'", category))
	}
}

// UpdateProductStock replaces the quantity of an existing category.
func (h *StockHandler) UpdateProductStock(c *gin.Context) {
	category, ok := pathCategory(c, h.logger)
	if !ok {
		return
	}
	var req productStockRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	quantity, err := h.ledger.UpdateQuantity(c.Request.Context(), category, *req.Quantity)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, quantity)
}

// AddProductStock adds a positive amount to a category.
func (h *StockHandler) AddProductStock(c *gin.Context) {
	category, ok := pathCategory(c, h.logger)
	if !ok {
		return
	}
	var req productAddRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	quantity, err := h.ledger.AddQuantity(c.Request.Context(), category, req.Quantity)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, quantity)
}
