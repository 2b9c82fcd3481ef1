package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"drivesafe-backend/internal/models"
)

type tokenIssuer interface {
	IssueToken(sessionID uuid.UUID) (string, error)
}

type SessionHandler struct {
	issuer tokenIssuer
	ttl    time.Duration
}

func NewSessionHandler(issuer tokenIssuer, ttl time.Duration) *SessionHandler {
	return &SessionHandler{issuer: issuer, ttl: ttl}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.New()

	token, err := h.issuer.IssueToken(sessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start session", r))
		return
	}

	writeJSON(w, http.StatusCreated, models.Session{
		SessionID: sessionID,
		Token:     token,
		ExpiresIn: int(h.ttl.Seconds()),
	})
}
