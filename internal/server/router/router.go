package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Stock     *handlers.StockHandler
	Sales     *handlers.SalesHandler
	Billing   *handlers.BillingHandler
	Customers *handlers.CustomerHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Brownie API", "version": "v1", "prefix": "/api/v1"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	estoque := v1.Group("/estoque")
	estoque.POST("/atualizar_estoque", h.Stock.SetQuantity)
	estoque.POST("/adicionar_ao_estoque", h.Stock.AddQuantity)
	estoque.POST("/estoque_atual", h.Stock.GetQuantity)
	estoque.GET("/estoque", h.Stock.ListAll)
	estoque.GET("/categorias_estoque", h.Stock.ListCategories)
	estoque.POST("/preco_unitario", h.Stock.UnitPrice)

	produtos := v1.Group("/produtos")
	produtos.PATCH("/:categoria/estoque", h.Stock.UpdateProductStock)
	produtos.POST("/:categoria/add_to_estoque", h.Stock.AddProductStock)

	v1.POST("/vendas/vender", h.Sales.RecordSale)
	v1.POST("/historico/historico/:pagina", h.Sales.History)

	cobranca := v1.Group("/cobranca")
	cobranca.GET("/pendentes", h.Billing.Pending)
	cobranca.GET("/cobrancas_ativas", h.Billing.Active)
	cobranca.GET("/cobrancas_pagas", h.Billing.Paid)
	cobranca.POST("/pagar_cobranca", h.Billing.Pay)
	cobranca.POST("/adicionar_cobranca", h.Billing.Create)

	v1.GET("/clientes/listar_clientes", h.Customers.List)

	if logger != nil {
		logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
