package router

import (
	"database/sql"

	"cafe_pos_backend/internal/handlers"
	"cafe_pos_backend/internal/middleware"
	"cafe_pos_backend/internal/repositories"
	"cafe_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	productRepo := repositories.NewProductRepository(db)
	tableRepo := repositories.NewTableRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	saleRepo := repositories.NewSaleRepository(db)

	// Initialize Services
	productService := services.NewProductService(productRepo, db)
	tableService := services.NewTableService(tableRepo, db)
	orderService := services.NewOrderService(orderRepo, tableRepo, productRepo, saleRepo, db)
	saleService := services.NewSaleService(saleRepo, productRepo, db)

	// Initialize Handlers
	productHandler := handlers.NewProductHandler(productService)
	tableHandler := handlers.NewTableHandler(tableService, orderService)
	orderHandler := handlers.NewOrderHandler(orderService)
	saleHandler := handlers.NewSaleHandler(saleService)

	apiV1 := engine.Group("/api/v1")

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupProductRoutes(authenticated, productHandler)
		SetupTableRoutes(authenticated, tableHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupSaleRoutes(authenticated, saleHandler)
	}
}
