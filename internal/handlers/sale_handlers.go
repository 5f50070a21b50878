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

// SaleHandler holds the sale service.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: ss}
}

// Checkout handles a direct retail sale with no table.
func (h *SaleHandler) Checkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "Checkout: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	sale, err := h.saleService.Checkout(userID, req)
	if err != nil {
		utils.LogError(err, "Checkout: Error from saleService.Checkout")
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "One or more products not found.", err.Error()))
		case errors.Is(err, services.ErrInsufficientStock):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Insufficient stock for one or more items.", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid sale data.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process checkout.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetSales handles fetching sales with filters and pagination.
func (h *SaleHandler) GetSales(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var filters models.SaleFilters
	if startDate := c.Query("start_date"); startDate != "" {
		filters.StartDate = &startDate
	}
	if endDate := c.Query("end_date"); endDate != "" {
		filters.EndDate = &endDate
	}
	if paymentMethod := c.Query("payment_method"); paymentMethod != "" {
		filters.PaymentMethod = &paymentMethod
	}
	if tableIDStr := c.Query("table_id"); tableIDStr != "" {
		tableID, err := strconv.ParseInt(tableIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table_id format.", err.Error()))
			return
		}
		filters.TableID = &tableID
	}
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}
	filters.Page = page
	filters.PageSize = pageSize

	sales, totalCount, err := h.saleService.GetSales(userID, filters)
	if err != nil {
		utils.LogError(err, "GetSales: Error from saleService.GetSales")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch sales.", "Internal error"))
		return
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	c.JSON(http.StatusOK, listResponse(sales, totalCount, filters.Page, filters.PageSize))
}

// GetSaleByID handles fetching a single sale with its items.
func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	saleID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSaleByID(userID, saleID)
	if err != nil {
		utils.LogError(err, "GetSaleByID: Error from saleService.GetSaleByID")
		if errors.Is(err, services.ErrSaleNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Sale not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch sale.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, sale)
}
