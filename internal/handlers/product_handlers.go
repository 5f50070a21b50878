package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/services"
	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ProductHandler holds the product service.
type ProductHandler struct {
	productService services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ps services.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

// CreateProduct handles the creation of a new product.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		utils.LogError(err, "CreateProduct: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	product.UserID = userID

	created, err := h.productService.CreateProduct(&product)
	if err != nil {
		utils.LogError(err, "CreateProduct: Error from productService.CreateProduct")
		if errors.Is(err, services.ErrDuplicateBarcode) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A product with this barcode already exists.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product data.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create product.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetProducts handles fetching products with filters and pagination.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var filters models.ProductFilters
	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}
	if minPriceStr := c.Query("min_price"); minPriceStr != "" {
		minPrice, err := strconv.ParseFloat(minPriceStr, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid min_price format.", err.Error()))
			return
		}
		filters.MinPrice = &minPrice
	}
	if maxPriceStr := c.Query("max_price"); maxPriceStr != "" {
		maxPrice, err := strconv.ParseFloat(maxPriceStr, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid max_price format.", err.Error()))
			return
		}
		filters.MaxPrice = &maxPrice
	}
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}
	filters.Page = page
	filters.PageSize = pageSize

	products, totalCount, err := h.productService.GetProducts(userID, filters)
	if err != nil {
		utils.LogError(err, "GetProducts: Error from productService.GetProducts")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch products.", "Internal error"))
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, listResponse(products, totalCount, filters.Page, filters.PageSize))
}

// GetProductByID handles fetching a single product by ID.
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProductByID(userID, productID)
	if err != nil {
		utils.LogError(err, "GetProductByID: Error from productService.GetProductByID")
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch product.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles updating an existing product.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		utils.LogError(err, "UpdateProduct: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	product.ID = productID
	product.UserID = userID

	updated, err := h.productService.UpdateProduct(&product)
	if err != nil {
		utils.LogError(err, "UpdateProduct: Error from productService.UpdateProduct")
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrDuplicateBarcode) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A product with this barcode already exists.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product data.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update product.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteProduct handles deleting a product.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(userID, productID); err != nil {
		utils.LogError(err, "DeleteProduct: Error from productService.DeleteProduct")
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found to delete.", err.Error()))
		} else if errors.Is(err, services.ErrProductInUse) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Product appears in order or sale history and cannot be deleted.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete product.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// GetLowStockProducts handles fetching tracked products at or below min stock.
func (h *ProductHandler) GetLowStockProducts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	products, err := h.productService.GetLowStockProducts(userID)
	if err != nil {
		utils.LogError(err, "GetLowStockProducts: Error from productService.GetLowStockProducts")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch low stock products.", "Internal error"))
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

// GetStockLevel handles fetching the stock projection for one product.
func (h *ProductHandler) GetStockLevel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	level, err := h.productService.GetStockLevel(userID, productID)
	if err != nil {
		utils.LogError(err, "GetStockLevel: Error from productService.GetStockLevel")
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch stock level.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, level)
}
