package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/order"
)

type CreateOrderItemRequest struct {
	ProductID    string  `json:"product_id" validate:"required,uuid"`
	Name         string  `json:"name" validate:"required"`
	PricePerUnit float64 `json:"price_per_unit" validate:"gte=0"`
	Quantity     int     `json:"quantity" validate:"required,gte=1"`
	ImageURL     string  `json:"image_url"`
}

type CreateOrderRequest struct {
	Customer struct {
		Name    string `json:"name" validate:"required"`
		Phone   string `json:"phone" validate:"required"`
		Address string `json:"address" validate:"required"`
		Email   string `json:"email" validate:"required,email"`
	} `json:"customer"`
	Items         []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string                   `json:"payment_method" validate:"required,oneof=cod bank_transfer"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TransitionResponse mirrors order.TransitionResult on the wire.
type TransitionResponse struct {
	Order     *order.Order `json:"order"`
	OldStatus order.Status `json:"old_status"`
	NewStatus order.Status `json:"new_status"`
}

// IllegalTransitionResponse names the reachable statuses so an
// operator sees valid choices, not just "invalid".
type IllegalTransitionResponse struct {
	Error       string         `json:"error"`
	From        order.Status   `json:"from"`
	To          order.Status   `json:"to"`
	AllowedNext []order.Status `json:"allowed_next"`
}

type OrderHandler struct {
	svc      order.Service
	validate *validator.Validate
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.CreateOrder)
	router.Get("/orders", h.ListOrders)
	router.Get("/orders/{id}", h.GetOrderByID)
	router.Patch("/orders/{id}/status", h.UpdateOrderStatus)
	router.Get("/customers/{email}/orders", h.ListCustomerOrders)
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode create-order request body")
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithValidationErrors(w, validationErrors)
		} else {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "internal validation error")
		}
		return
	}

	domainOrder := order.Order{
		Customer: order.Customer{
			Name:    requestPayload.Customer.Name,
			Phone:   requestPayload.Customer.Phone,
			Address: requestPayload.Customer.Address,
			Email:   requestPayload.Customer.Email,
		},
		PaymentMethod: order.PaymentMethod(requestPayload.PaymentMethod),
	}
	for _, item := range requestPayload.Items {
		productID, err := uuid.FromString(item.ProductID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid product id: "+item.ProductID)
			return
		}
		domainOrder.Items = append(domainOrder.Items, order.OrderItem{
			ProductID:    productID,
			Name:         item.Name,
			PricePerUnit: item.PricePerUnit,
			Quantity:     item.Quantity,
			ImageURL:     item.ImageURL,
		})
	}

	created, err := h.svc.CreateOrder(r.Context(), &domainOrder)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create order via service")
		respondWithError(w, mapErrorToStatusCode(err), "failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	orderID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	foundOrder, err := h.svc.GetOrderByID(r.Context(), orderID)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusNotFound {
			respondWithError(w, statusCode, "order not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get order by id via service")
		respondWithError(w, statusCode, "failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, foundOrder)
}

func parseListFilter(r *http.Request) (order.Filter, error) {
	query := r.URL.Query()
	filter := order.Filter{
		Customer: query.Get("customer"),
	}

	if raw := query.Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			return order.Filter{}, err
		}
		filter.Status = status
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return order.Filter{}, errors.New("invalid 'from' timestamp, expected RFC3339")
		}
		filter.From = from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return order.Filter{}, errors.New("invalid 'to' timestamp, expected RFC3339")
		}
		filter.To = to
	}
	if raw := query.Get("min_total"); raw != "" {
		minTotal, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return order.Filter{}, errors.New("invalid 'min_total' value")
		}
		filter.MinTotal = &minTotal
	}
	if raw := query.Get("max_total"); raw != "" {
		maxTotal, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return order.Filter{}, errors.New("invalid 'max_total' value")
		}
		filter.MaxTotal = &maxTotal
	}
	return filter, nil
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		respondWithError(w, http.StatusBadRequest, "email parameter cannot be empty")
		return
	}

	orders, err := h.svc.ListCustomerOrders(r.Context(), email)
	if err != nil {
		log.Error().Err(err).Str("customer_email", email).Msg("Failed to list customer orders via service")
		respondWithError(w, http.StatusInternalServerError, "failed to list customer orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	orderID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	var requestPayload UpdateStatusRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithValidationErrors(w, validationErrors)
		} else {
			respondWithError(w, http.StatusInternalServerError, "internal validation error")
		}
		return
	}

	requested, err := order.ParseStatus(requestPayload.Status)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "unknown status: "+requestPayload.Status)
		return
	}

	result, err := h.svc.UpdateOrderStatus(r.Context(), orderID, requested)
	if err != nil {
		var illegal *order.IllegalTransitionError
		if errors.As(err, &illegal) {
			respondWithJSON(w, http.StatusConflict, IllegalTransitionResponse{
				Error:       "illegal status transition",
				From:        illegal.From,
				To:          illegal.To,
				AllowedNext: illegal.AllowedNext,
			})
			return
		}

		statusCode := mapErrorToStatusCode(err)
		var clientMessage string
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			clientMessage = "order not found"
		case errors.Is(err, order.ErrNoOpTransition):
			clientMessage = "order already has the requested status"
		case errors.Is(err, order.ErrConcurrentModification):
			clientMessage = "order was modified concurrently, re-read and retry"
		default:
			log.Error().Err(err).Msg("Failed to update order status via service")
			clientMessage = "failed to update order status"
		}
		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, TransitionResponse{
		Order:     result.Order,
		OldStatus: result.OldStatus,
		NewStatus: result.NewStatus,
	})
}
