package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/estatehub/realtime/internal/services"
	"github.com/estatehub/realtime/pkg/logger"
	"github.com/gorilla/mux"
)

type MessageHandler struct {
	Service *services.ChatService
}

func NewMessageHandler(service *services.ChatService) *MessageHandler {
	return &MessageHandler{Service: service}
}

// POST /api/message/send
func (h *MessageHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	var req services.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.Service.SendMessage(r.Context(), req)
	if errors.Is(err, services.ErrInvalidPayload) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Log.Errorf("Failed to send message: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// GET /api/message/conversations
func (h *MessageHandler) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	convos, err := h.Service.Conversations(r.Context(), userID)
	if err != nil {
		logger.Log.Errorf("Failed to load conversations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load conversations"})
		return
	}

	writeJSON(w, http.StatusOK, convos)
}

// GET /api/message/chat/{listingId}/{otherUserId}
func (h *MessageHandler) GetThreadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	messages, err := h.Service.Thread(r.Context(), vars["listingId"], userID.Hex(), vars["otherUserId"])
	if errors.Is(err, services.ErrInvalidPayload) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Log.Errorf("Failed to load messages: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load messages"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}
