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

// fakeOrderService returns canned results so handler mapping can be tested
// without a database.
type fakeOrderService struct {
	openOrderFn    func(userID int64, req services.OpenOrderRequest) (*models.Order, error)
	replaceItemsFn func(userID, orderID int64, req services.ReplaceItemsRequest) (*models.Order, error)
	closeOrderFn   func(userID, orderID int64, req services.CloseOrderRequest) (*models.Sale, error)
	getOrderByIDFn func(userID, orderID int64) (*models.Order, error)
}

func (f *fakeOrderService) OpenOrder(userID int64, req services.OpenOrderRequest) (*models.Order, error) {
	return f.openOrderFn(userID, req)
}

func (f *fakeOrderService) ReplaceItems(userID, orderID int64, req services.ReplaceItemsRequest) (*models.Order, error) {
	return f.replaceItemsFn(userID, orderID, req)
}

func (f *fakeOrderService) CloseOrder(userID, orderID int64, req services.CloseOrderRequest) (*models.Sale, error) {
	return f.closeOrderFn(userID, orderID, req)
}

func (f *fakeOrderService) GetActiveOrder(userID, tableID int64) (*models.Order, error) {
	return nil, services.ErrOrderNotFound
}

func (f *fakeOrderService) GetOrders(userID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	return []models.Order{}, 0, nil
}

func (f *fakeOrderService) GetOrderByID(userID, orderID int64) (*models.Order, error) {
	return f.getOrderByIDFn(userID, orderID)
}

// newTestRouter wires the handler behind a middleware that injects the
// authenticated user, mirroring what AuthMiddleware does in production.
func newTestRouter(register func(*gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	group := engine.Group("")
	group.Use(func(c *gin.Context) {
		c.Set("userID", int64(1))
		c.Next()
	})
	register(group)
	return engine
}

func TestOpenOrderReturnsCreated(t *testing.T) {
	svc := &fakeOrderService{
		openOrderFn: func(userID int64, req services.OpenOrderRequest) (*models.Order, error) {
			return &models.Order{
				ID:          11,
				TableID:     req.TableID,
				UserID:      userID,
				Status:      models.OrderStatusActive,
				TotalAmount: 9.99,
			}, nil
		},
	}
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.POST("/orders", NewOrderHandler(svc).OpenOrder)
	})

	body, _ := json.Marshal(gin.H{
		"table_id": 3,
		"items":    []gin.H{{"product_id": 1, "quantity": 2}},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var got models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, int64(3), got.TableID)
	assert.Equal(t, models.OrderStatusActive, got.Status)
}

func TestOpenOrderMapsConflicts(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{name: "occupied table", serviceErr: services.ErrTableOccupied, wantStatus: http.StatusConflict, wantCode: "CONFLICT"},
		{name: "insufficient stock", serviceErr: services.ErrInsufficientStock, wantStatus: http.StatusConflict, wantCode: "CONFLICT"},
		{name: "missing table", serviceErr: services.ErrTableNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "missing product", serviceErr: services.ErrProductNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "validation failure", serviceErr: services.ErrValidation, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeOrderService{
				openOrderFn: func(int64, services.OpenOrderRequest) (*models.Order, error) {
					return nil, tt.serviceErr
				},
			}
			engine := newTestRouter(func(g *gin.RouterGroup) {
				g.POST("/orders", NewOrderHandler(svc).OpenOrder)
			})

			body, _ := json.Marshal(gin.H{
				"table_id": 3,
				"items":    []gin.H{{"product_id": 1, "quantity": 2}},
			})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			engine.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)

			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestCloseOrderReturnsSale(t *testing.T) {
	tableID := int64(3)
	svc := &fakeOrderService{
		closeOrderFn: func(userID, orderID int64, req services.CloseOrderRequest) (*models.Sale, error) {
			return &models.Sale{ID: 5, UserID: userID, TableID: &tableID, TotalAmount: 20, PaymentMethod: "cash"}, nil
		},
	}
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.POST("/orders/:id/close", NewOrderHandler(svc).CloseOrder)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/9/close", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got models.Sale
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(5), got.ID)
	assert.Equal(t, "cash", got.PaymentMethod)
}

func TestCloseOrderAcceptsEmptyBody(t *testing.T) {
	svc := &fakeOrderService{
		closeOrderFn: func(userID, orderID int64, req services.CloseOrderRequest) (*models.Sale, error) {
			// No body means no payment method; the service applies the default.
			assert.Empty(t, req.PaymentMethod)
			return &models.Sale{ID: 6, UserID: userID, TotalAmount: 12, PaymentMethod: services.DefaultPaymentMethod}, nil
		},
	}
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.POST("/orders/:id/close", NewOrderHandler(svc).CloseOrder)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/9/close", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got models.Sale
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, services.DefaultPaymentMethod, got.PaymentMethod)
}

func TestCloseOrderAlreadyClosedIsConflict(t *testing.T) {
	svc := &fakeOrderService{
		closeOrderFn: func(int64, int64, services.CloseOrderRequest) (*models.Sale, error) {
			return nil, services.ErrOrderAlreadyClosed
		},
	}
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.POST("/orders/:id/close", NewOrderHandler(svc).CloseOrder)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/9/close", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetOrderByIDNotFound(t *testing.T) {
	svc := &fakeOrderService{
		getOrderByIDFn: func(int64, int64) (*models.Order, error) {
			return nil, services.ErrOrderNotFound
		},
	}
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.GET("/orders/:id", NewOrderHandler(svc).GetOrderByID)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/404", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderByIDRejectsBadID(t *testing.T) {
	engine := newTestRouter(func(g *gin.RouterGroup) {
		g.GET("/orders/:id", NewOrderHandler(&fakeOrderService{}).GetOrderByID)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-number", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
