package handlers

import (
	"errors"
	"net/http"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/services"
	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler holds the table and order services. Orders are needed for the
// active-order lookup exposed under the tables resource.
type TableHandler struct {
	tableService services.TableService
	orderService services.OrderService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(ts services.TableService, os services.OrderService) *TableHandler {
	return &TableHandler{tableService: ts, orderService: os}
}

// RenameTableRequest updates a table's display name.
type RenameTableRequest struct {
	Name string `json:"name" binding:"required"`
}

// GetTables handles fetching all tables with their occupancy state.
func (h *TableHandler) GetTables(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	tables, err := h.tableService.GetTables(userID)
	if err != nil {
		utils.LogError(err, "GetTables: Error from tableService.GetTables")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch tables.", "Internal error"))
		return
	}
	if tables == nil {
		tables = []models.Table{}
	}
	c.JSON(http.StatusOK, gin.H{"data": tables})
}

// GetTableByID handles fetching a single table by ID.
func (h *TableHandler) GetTableByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id")
	if !ok {
		return
	}

	table, err := h.tableService.GetTableByID(userID, tableID)
	if err != nil {
		utils.LogError(err, "GetTableByID: Error from tableService.GetTableByID")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, table)
}

// CreateTable handles the creation of a new table.
func (h *TableHandler) CreateTable(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var table models.Table
	if err := c.ShouldBindJSON(&table); err != nil {
		utils.LogError(err, "CreateTable: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	table.UserID = userID

	created, err := h.tableService.CreateTable(&table)
	if err != nil {
		utils.LogError(err, "CreateTable: Error from tableService.CreateTable")
		if errors.Is(err, services.ErrDuplicateTableNumber) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A table with this number already exists.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table data.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// RenameTable handles renaming a table. Status and number are not editable
// through this endpoint.
func (h *TableHandler) RenameTable(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req RenameTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "RenameTable: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.RenameTable(userID, tableID, req.Name)
	if err != nil {
		utils.LogError(err, "RenameTable: Error from tableService.RenameTable")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found to rename.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table data.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to rename table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, table)
}

// DeleteTable handles deleting a table. A table with an active order cannot
// be deleted.
func (h *TableHandler) DeleteTable(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.tableService.DeleteTable(userID, tableID); err != nil {
		utils.LogError(err, "DeleteTable: Error from tableService.DeleteTable")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found to delete.", err.Error()))
		} else if errors.Is(err, services.ErrTableHasActiveOrder) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table has an active order and cannot be deleted.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table deleted successfully"})
}

// GetActiveOrder handles fetching the active order for a table.
func (h *TableHandler) GetActiveOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetActiveOrder(userID, tableID)
	if err != nil {
		utils.LogError(err, "GetActiveOrder: Error from orderService.GetActiveOrder")
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No active order for this table.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch active order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, order)
}
