package router

import (
	"cafe_pos_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupProductRoutes sets up the product catalog and stock routes.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	{
		productRoutes.POST("", productHandler.CreateProduct)
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/low-stock", productHandler.GetLowStockProducts)
		productRoutes.GET("/:id", productHandler.GetProductByID)
		productRoutes.GET("/:id/stock", productHandler.GetStockLevel)
		productRoutes.PUT("/:id", productHandler.UpdateProduct)
		productRoutes.DELETE("/:id", productHandler.DeleteProduct)
	}
}

// SetupTableRoutes sets up the table routes. Occupancy transitions are not
// routed directly; they happen through order open and close.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	{
		tableRoutes.POST("", tableHandler.CreateTable)
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.GET("/:id", tableHandler.GetTableByID)
		tableRoutes.GET("/:id/active-order", tableHandler.GetActiveOrder)
		tableRoutes.PUT("/:id", tableHandler.RenameTable)
		tableRoutes.DELETE("/:id", tableHandler.DeleteTable)
	}
}

// SetupOrderRoutes sets up the order lifecycle routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	{
		orderRoutes.POST("", orderHandler.OpenOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.PUT("/:id/items", orderHandler.ReplaceItems)
		orderRoutes.POST("/:id/close", orderHandler.CloseOrder)
	}
}

// SetupSaleRoutes sets up the sale routes. Sales are append-only; there are
// no update or delete endpoints.
func SetupSaleRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := authenticatedGroup.Group("/sales")
	{
		saleRoutes.POST("", saleHandler.Checkout)
		saleRoutes.GET("", saleHandler.GetSales)
		saleRoutes.GET("/:id", saleHandler.GetSaleByID)
	}
}
