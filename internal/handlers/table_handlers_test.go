package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTableService struct {
	createTableFn func(table *models.Table) (*models.Table, error)
	deleteTableFn func(userID, tableID int64) error
	getTablesFn   func(userID int64) ([]models.Table, error)
}

func (f *fakeTableService) GetTables(userID int64) ([]models.Table, error) {
	return f.getTablesFn(userID)
}

func (f *fakeTableService) GetTableByID(userID, tableID int64) (*models.Table, error) {
	return nil, services.ErrTableNotFound
}

func (f *fakeTableService) CreateTable(table *models.Table) (*models.Table, error) {
	return f.createTableFn(table)
}

func (f *fakeTableService) RenameTable(userID, tableID int64, name string) (*models.Table, error) {
	return nil, services.ErrTableNotFound
}

func (f *fakeTableService) DeleteTable(userID, tableID int64) error {
	return f.deleteTableFn(userID, tableID)
}

func TestCreateTableReturnsCreated(t *testing.T) {
	svc := &fakeTableService{
		createTableFn: func(table *models.Table) (*models.Table, error) {
			table.ID = 4
			table.Status = models.TableStatusEmpty
			return table, nil
		},
	}
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.POST("/tables", NewTableHandler(svc, &fakeOrderService{}).CreateTable)
	})

	body, _ := json.Marshal(gin.H{"name": "Window table", "number": 4})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tables", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var got models.Table
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(4), got.ID)
	assert.Equal(t, models.TableStatusEmpty, got.Status)
	assert.Equal(t, int64(1), got.UserID)
}

func TestCreateTableDuplicateNumberIsConflict(t *testing.T) {
	svc := &fakeTableService{
		createTableFn: func(table *models.Table) (*models.Table, error) {
			return nil, services.ErrDuplicateTableNumber
		},
	}
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.POST("/tables", NewTableHandler(svc, &fakeOrderService{}).CreateTable)
	})

	body, _ := json.Marshal(gin.H{"name": "Window table", "number": 4})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tables", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteTableWithActiveOrderIsConflict(t *testing.T) {
	svc := &fakeTableService{
		deleteTableFn: func(userID, tableID int64) error {
			return services.ErrTableHasActiveOrder
		},
	}
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.DELETE("/tables/:id", NewTableHandler(svc, &fakeOrderService{}).DeleteTable)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/tables/2", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CONFLICT", resp.Error.Code)
}

func TestDeleteTableNotFound(t *testing.T) {
	svc := &fakeTableService{
		deleteTableFn: func(userID, tableID int64) error {
			return services.ErrTableNotFound
		},
	}
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.DELETE("/tables/:id", NewTableHandler(svc, &fakeOrderService{}).DeleteTable)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/tables/2", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTablesReturnsEmptyListNotNull(t *testing.T) {
	svc := &fakeTableService{
		getTablesFn: func(userID int64) ([]models.Table, error) {
			return nil, nil
		},
	}
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.GET("/tables", NewTableHandler(svc, &fakeOrderService{}).GetTables)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tables", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data": []}`, w.Body.String())
}
