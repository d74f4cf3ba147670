package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/estatehub/realtime/internal/services"
	"github.com/estatehub/realtime/pkg/logger"
)

type BookingHandler struct {
	Service *services.BookingService
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{Service: service}
}

// POST /api/booking/create
func (h *BookingHandler) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	var req services.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Invalid request body"})
		return
	}

	booking, err := h.Service.CreateBooking(r.Context(), req)
	if errors.Is(err, services.ErrInvalidPayload) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": err.Error()})
		return
	}
	if err != nil {
		logger.Log.Errorf("Create booking error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Server Error"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Inquiry sent successfully",
		"booking": booking,
	})
}
