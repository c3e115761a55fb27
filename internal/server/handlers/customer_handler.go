package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/service/customers"
)

// CustomerHandler lists customers.
type CustomerHandler struct {
	directory customers.Directory
	logger    *zap.Logger
}

func NewCustomerHandler(directory customers.Directory, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{directory: directory, logger: orNop(logger)}
}

// List returns every registered customer.
func (h *CustomerHandler) List(c *gin.Context) {
	list, err := h.directory.ListCustomers(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
