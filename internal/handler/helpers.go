package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/coupon"
	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/order"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithValidationErrors(w http.ResponseWriter, validationErrors validator.ValidationErrors) {
	details := make(map[string]string)
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = "failed on rule '" + fieldErr.Tag() + "'"
	}
	respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:   "Validation failed",
		Details: details,
	})
}

func mapErrorToStatusCode(err error) int {
	var illegal *order.IllegalTransitionError
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, coupon.ErrCouponNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrNoOpTransition),
		errors.Is(err, order.ErrConcurrentModification),
		errors.Is(err, coupon.ErrCodeExists),
		errors.As(err, &illegal):
		return http.StatusConflict
	case errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, coupon.ErrInvalidCoupon):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
