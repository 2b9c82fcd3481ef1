package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"drivesafe-backend/internal/metrics"
	"drivesafe-backend/internal/middleware"
	"drivesafe-backend/internal/models"
	"drivesafe-backend/internal/scoring"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type assessmentRepository interface {
	Create(ctx context.Context, rec *models.AssessmentRecord) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.AssessmentRecord, error)
}

type SafetyHandler struct {
	history assessmentRepository
	strict  bool
	logger  *zap.Logger
}

// NewSafetyHandler wires the calculator endpoints. history may be nil, in
// which case assessments are not recorded.
func NewSafetyHandler(history assessmentRepository, strict bool, logger *zap.Logger) *SafetyHandler {
	return &SafetyHandler{history: history, strict: strict, logger: logger}
}

func (h *SafetyHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var conditions models.DrivingConditions
	if err := json.NewDecoder(r.Body).Decode(&conditions); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if h.strict {
		if err := scoring.Validate(conditions); err != nil {
			fields, _ := err.(scoring.FieldErrors)
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Invalid driving conditions", fields, r))
			return
		}
	}

	assessment := scoring.Assess(conditions)
	metrics.SafetyAssessments.WithLabelValues(string(assessment.Band)).Inc()

	if sessionID, ok := middleware.GetSessionID(r.Context()); ok && h.history != nil {
		rec := &models.AssessmentRecord{SessionID: sessionID, Conditions: conditions, Assessment: assessment}
		if err := h.history.Create(r.Context(), rec); err != nil {
			h.logger.Warn("failed to record assessment",
				zap.String("session_id", sessionID.String()),
				zap.Error(err),
			)
		}
	}

	writeJSON(w, http.StatusOK, assessment)
}

func (h *SafetyHandler) Bands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bands": scoring.Bands(),
	})
}

func (h *SafetyHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, errorResp("HISTORY_DISABLED", "Assessment history is not enabled", r))
		return
	}

	sessionID, _ := middleware.GetSessionID(r.Context())

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be a positive integer", r))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.history.ListBySession(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("failed to list assessments", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load assessment history", r))
		return
	}
	if records == nil {
		records = []*models.AssessmentRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assessments": records,
	})
}
