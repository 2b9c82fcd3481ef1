package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"drivesafe-backend/internal/middleware"
	"drivesafe-backend/internal/models"
)

type chatService interface {
	SendMessage(ctx context.Context, sessionID uuid.UUID, text string) (models.ChatReply, error)
	History(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error)
}

type ChatHandler struct {
	chat   chatService
	logger *zap.Logger
}

func NewChatHandler(chat chatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// Send answers with 200 even when generation fails; the reply then carries
// the apology text and failed=true.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sessionID, _ := middleware.GetSessionID(r.Context())

	reply, err := h.chat.SendMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := middleware.GetSessionID(r.Context())

	msgs, err := h.chat.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load chat history", zap.String("session_id", sessionID.String()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load chat history", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
	})
}
