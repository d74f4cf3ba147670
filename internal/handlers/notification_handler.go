package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/estatehub/realtime/internal/services"
	"github.com/estatehub/realtime/pkg/logger"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// GET /api/notifications/get-notifications
func (h *NotificationHandler) GetDropdownNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	notifications, err := h.Service.Dropdown(r.Context(), userID)
	if err != nil {
		logger.Log.Errorf("Failed to fetch notifications: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"notifications": notifications,
	})
}

// GET /api/notifications/all-notifications?page=&limit=
func (h *NotificationHandler) GetAllNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	result, err := h.Service.List(r.Context(), userID, page, limit)
	if err != nil {
		logger.Log.Errorf("Failed to list notifications: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"notifications": result.Notifications,
		"total":         result.Total,
		"page":          result.Page,
		"pages":         result.Pages,
	})
}

// PUT /api/notifications/mark-as-read/{notificationId}
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	notifID, err := primitive.ObjectIDFromHex(mux.Vars(r)["notificationId"])
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	notification, err := h.Service.MarkAsRead(r.Context(), userID, notifID)
	if errors.Is(err, services.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Notification not found"})
		return
	}
	if err != nil {
		logger.Log.Errorf("Failed to mark notification as read: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Notification marked as read",
		"notification": notification,
	})
}

// PUT /api/notifications/read-all-notifications
func (h *NotificationHandler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if _, err := h.Service.MarkAllRead(r.Context(), userID); err != nil {
		logger.Log.Errorf("Failed to mark all notifications as read: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "All notifications marked as read"})
}

func queryInt(r *http.Request, key string, def int64) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil || v < 1 {
		return def
	}
	return v
}
