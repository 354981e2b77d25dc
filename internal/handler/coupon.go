package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/coupon"
)

type CouponRequest struct {
	Code       string    `json:"code" validate:"required"`
	Type       string    `json:"type" validate:"required,oneof=percentage fixed"`
	Value      float64   `json:"value" validate:"required,gt=0"`
	ActiveFrom time.Time `json:"active_from"`
	ActiveTo   time.Time `json:"active_to"`
	UsageCap   int       `json:"usage_cap" validate:"gte=0"`
	Active     bool      `json:"active"`
}

type CouponHandler struct {
	svc      coupon.Service
	validate *validator.Validate
}

func NewCouponHandler(svc coupon.Service) *CouponHandler {
	return &CouponHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *CouponHandler) RegisterRoutes(router chi.Router) {
	router.Post("/coupons", h.CreateCoupon)
	router.Get("/coupons", h.ListCoupons)
	router.Get("/coupons/{id}", h.GetCouponByID)
	router.Put("/coupons/{id}", h.UpdateCoupon)
	router.Delete("/coupons/{id}", h.DeleteCoupon)
}

func (h *CouponHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request) (*CouponRequest, bool) {
	var requestPayload CouponRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithValidationErrors(w, validationErrors)
		} else {
			respondWithError(w, http.StatusInternalServerError, "internal validation error")
		}
		return nil, false
	}
	return &requestPayload, true
}

func toDomainCoupon(payload *CouponRequest) *coupon.Coupon {
	return &coupon.Coupon{
		Code:       payload.Code,
		Type:       coupon.DiscountType(payload.Type),
		Value:      payload.Value,
		ActiveFrom: payload.ActiveFrom,
		ActiveTo:   payload.ActiveTo,
		UsageCap:   payload.UsageCap,
		Active:     payload.Active,
	}
}

func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	requestPayload, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	created, err := h.svc.CreateCoupon(r.Context(), toDomainCoupon(requestPayload))
	if err != nil {
		if errors.Is(err, coupon.ErrCodeExists) {
			respondWithError(w, http.StatusConflict, "coupon code already exists")
			return
		}
		log.Error().Err(err).Msg("Failed to create coupon via service")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.svc.ListCoupons(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list coupons via service")
		respondWithError(w, http.StatusInternalServerError, "failed to list coupons")
		return
	}
	respondWithJSON(w, http.StatusOK, coupons)
}

func (h *CouponHandler) GetCouponByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	found, err := h.svc.GetCouponByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, coupon.ErrCouponNotFound) {
			respondWithError(w, http.StatusNotFound, "coupon not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get coupon via service")
		respondWithError(w, http.StatusInternalServerError, "failed to get coupon")
		return
	}
	respondWithJSON(w, http.StatusOK, found)
}

func (h *CouponHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	requestPayload, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}

	domainCoupon := toDomainCoupon(requestPayload)
	domainCoupon.ID = id

	if err := h.svc.UpdateCoupon(r.Context(), domainCoupon); err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Failed to update coupon via service")
			respondWithError(w, statusCode, "failed to update coupon")
			return
		}
		respondWithError(w, statusCode, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, domainCoupon)
}

func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	if err := h.svc.DeleteCoupon(r.Context(), id); err != nil {
		if errors.Is(err, coupon.ErrCouponNotFound) {
			respondWithError(w, http.StatusNotFound, "coupon not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete coupon via service")
		respondWithError(w, http.StatusInternalServerError, "failed to delete coupon")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
