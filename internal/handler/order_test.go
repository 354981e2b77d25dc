package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/order"
)

type mockOrderService struct {
	CreateOrderFunc        func(ctx context.Context, o *order.Order) (*order.Order, error)
	GetOrderByIDFunc       func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	ListOrdersFunc         func(ctx context.Context, filter order.Filter) ([]order.Order, error)
	ListCustomerOrdersFunc func(ctx context.Context, email string) ([]order.Order, error)
	UpdateOrderStatusFunc  func(ctx context.Context, orderID uuid.UUID, requested order.Status) (*order.TransitionResult, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, o *order.Order) (*order.Order, error) {
	return m.CreateOrderFunc(ctx, o)
}

func (m *mockOrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.GetOrderByIDFunc(ctx, id)
}

func (m *mockOrderService) ListOrders(ctx context.Context, filter order.Filter) ([]order.Order, error) {
	return m.ListOrdersFunc(ctx, filter)
}

func (m *mockOrderService) ListCustomerOrders(ctx context.Context, email string) ([]order.Order, error) {
	return m.ListCustomerOrdersFunc(ctx, email)
}

func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, requested order.Status) (*order.TransitionResult, error) {
	return m.UpdateOrderStatusFunc(ctx, orderID, requested)
}

func newTestRouter(svc order.Service) *chi.Mux {
	r := chi.NewRouter()
	NewOrderHandler(svc).RegisterRoutes(r)
	return r
}

func fixedOrder(t *testing.T) *order.Order {
	t.Helper()
	id, err := uuid.FromString("550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)
	productID, err := uuid.FromString("123e4567-e89b-12d3-a456-426614174000")
	require.NoError(t, err)
	return &order.Order{
		ID: id,
		Customer: order.Customer{
			Name:    "Nguyen Van A",
			Phone:   "0901234567",
			Address: "12 Ly Thuong Kiet, Hanoi",
			Email:   "a.nguyen@example.com",
		},
		Items: []order.OrderItem{
			{ProductID: productID, Name: "Arduino Uno R3", PricePerUnit: 250000, Quantity: 2},
		},
		Total:         500000,
		Status:        order.StatusConfirmed,
		PaymentMethod: order.PaymentCOD,
		CreatedAt:     time.Date(2025, 4, 16, 12, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 4, 16, 12, 0, 0, 0, time.UTC),
	}
}

func TestOrderHandler_UpdateOrderStatus(t *testing.T) {
	existing := fixedOrder(t)

	tests := []struct {
		name           string
		orderID        string
		body           string
		updateFunc     func(ctx context.Context, orderID uuid.UUID, requested order.Status) (*order.TransitionResult, error)
		expectedStatus int
		checkBody      func(t *testing.T, body string)
	}{
		{
			name:    "success",
			orderID: existing.ID.String(),
			body:    `{"status": "shipping"}`,
			updateFunc: func(ctx context.Context, orderID uuid.UUID, requested order.Status) (*order.TransitionResult, error) {
				updated := *existing
				updated.Status = requested
				return &order.TransitionResult{Order: &updated, OldStatus: order.StatusConfirmed, NewStatus: requested}, nil
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `"old_status":"confirmed"`)
				assert.Contains(t, body, `"new_status":"shipping"`)
			},
		},
		{
			name:    "synonym_is_canonicalized_before_service_call",
			orderID: existing.ID.String(),
			body:    `{"status": "cancelled"}`,
			updateFunc: func(ctx context.Context, orderID uuid.UUID, requested order.Status) (*order.TransitionResult, error) {
				assert.Equal(t, order.StatusCanceled, requested)
				updated := *existing
				updated.Status = requested
				return &order.TransitionResult{Order: &updated, OldStatus: order.StatusConfirmed, NewStatus: requested}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "illegal_transition_names_allowed_next",
			orderID: existing.ID.String(),
			body:    `{"status": "completed"}`,
			updateFunc: func(ctx context.Context, orderID uuid.UUID, requested order.Status) (*order.TransitionResult, error) {
				return nil, &order.IllegalTransitionError{
					From:        order.StatusConfirmed,
					To:          order.StatusCompleted,
					AllowedNext: []order.Status{order.StatusShipping, order.StatusCanceled},
				}
			},
			expectedStatus: http.StatusConflict,
			checkBody: func(t *testing.T, body string) {
				assert.JSONEq(t, `{
					"error": "illegal status transition",
					"from": "confirmed",
					"to": "completed",
					"allowed_next": ["shipping", "canceled"]
				}`, body)
			},
		},
		{
			name:    "noop_transition",
			orderID: existing.ID.String(),
			body:    `{"status": "confirmed"}`,
			updateFunc: func(ctx context.Context, orderID uuid.UUID, requested order.Status) (*order.TransitionResult, error) {
				return nil, order.ErrNoOpTransition
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:    "not_found",
			orderID: existing.ID.String(),
			body:    `{"status": "shipping"}`,
			updateFunc: func(ctx context.Context, orderID uuid.UUID, requested order.Status) (*order.TransitionResult, error) {
				return nil, order.ErrOrderNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:    "concurrent_modification",
			orderID: existing.ID.String(),
			body:    `{"status": "shipping"}`,
			updateFunc: func(ctx context.Context, orderID uuid.UUID, requested order.Status) (*order.TransitionResult, error) {
				return nil, order.ErrConcurrentModification
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unknown_status",
			orderID:        existing.ID.String(),
			body:           `{"status": "teleported"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing_status",
			orderID:        existing.ID.String(),
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_order_id",
			orderID:        "not-a-uuid",
			body:           `{"status": "shipping"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockOrderService{
				UpdateOrderStatusFunc: tt.updateFunc,
			}
			router := newTestRouter(mockSvc)

			req := httptest.NewRequest(http.MethodPatch, "/orders/"+tt.orderID+"/status", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkBody != nil {
				tt.checkBody(t, w.Body.String())
			}
		})
	}
}

func TestOrderHandler_GetOrderByID(t *testing.T) {
	existing := fixedOrder(t)

	tests := []struct {
		name           string
		orderID        string
		getByIDFunc    func(ctx context.Context, id uuid.UUID) (*order.Order, error)
		expectedStatus int
	}{
		{
			name:    "success",
			orderID: existing.ID.String(),
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return existing, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "not_found",
			orderID: existing.ID.String(),
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid_id",
			orderID:        "42",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockOrderService{
				GetOrderByIDFunc: tt.getByIDFunc,
			}
			router := newTestRouter(mockSvc)

			req := httptest.NewRequest(http.MethodGet, "/orders/"+tt.orderID, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestOrderHandler_ListOrders_FilterParsing(t *testing.T) {
	var captured order.Filter
	mockSvc := &mockOrderService{
		ListOrdersFunc: func(ctx context.Context, filter order.Filter) ([]order.Order, error) {
			captured = filter
			return []order.Order{}, nil
		},
	}
	router := newTestRouter(mockSvc)

	req := httptest.NewRequest(http.MethodGet,
		"/orders?customer=nguyen&status=delivered&from=2025-01-01T00:00:00Z&min_total=100000", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nguyen", captured.Customer)
	assert.Equal(t, order.StatusCompleted, captured.Status, "legacy spelling must be canonicalized")
	assert.Equal(t, 2025, captured.From.Year())
	require.NotNil(t, captured.MinTotal)
	assert.Equal(t, float64(100000), *captured.MinTotal)

	req = httptest.NewRequest(http.MethodGet, "/orders?from=yesterday", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/orders?status=teleported", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name: "success",
			body: `{
				"customer": {"name": "Nguyen Van A", "phone": "0901234567", "address": "12 Ly Thuong Kiet, Hanoi", "email": "a.nguyen@example.com"},
				"items": [{"product_id": "123e4567-e89b-12d3-a456-426614174000", "name": "Arduino Uno R3", "price_per_unit": 250000, "quantity": 2}],
				"payment_method": "cod"
			}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing_email",
			body: `{
				"customer": {"name": "Nguyen Van A", "phone": "0901234567", "address": "12 Ly Thuong Kiet, Hanoi", "email": ""},
				"items": [{"product_id": "123e4567-e89b-12d3-a456-426614174000", "name": "Arduino Uno R3", "price_per_unit": 250000, "quantity": 2}],
				"payment_method": "cod"
			}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "no_items",
			body: `{
				"customer": {"name": "Nguyen Van A", "phone": "0901234567", "address": "12 Ly Thuong Kiet, Hanoi", "email": "a.nguyen@example.com"},
				"items": [],
				"payment_method": "cod"
			}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad_payment_method",
			body: `{
				"customer": {"name": "Nguyen Van A", "phone": "0901234567", "address": "12 Ly Thuong Kiet, Hanoi", "email": "a.nguyen@example.com"},
				"items": [{"product_id": "123e4567-e89b-12d3-a456-426614174000", "name": "Arduino Uno R3", "price_per_unit": 250000, "quantity": 2}],
				"payment_method": "crypto"
			}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_json",
			body:           `{invalid json}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockOrderService{
				CreateOrderFunc: func(ctx context.Context, o *order.Order) (*order.Order, error) {
					o.Status = order.StatusPending
					return o, nil
				},
			}
			router := newTestRouter(mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
