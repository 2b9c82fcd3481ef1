package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"drivesafe-backend/internal/models"
	"drivesafe-backend/internal/scoring"
)

type AssessmentRepo struct {
	pool *pgxpool.Pool
}

func NewAssessmentRepo(pool *pgxpool.Pool) *AssessmentRepo {
	return &AssessmentRepo{pool: pool}
}

func (r *AssessmentRepo) Create(ctx context.Context, rec *models.AssessmentRecord) error {
	conditionsJSON, err := json.Marshal(rec.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode conditions: %w", err)
	}
	recsJSON, err := json.Marshal(rec.Assessment.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}
	factorsJSON, err := json.Marshal(rec.Assessment.Factors)
	if err != nil {
		return fmt.Errorf("failed to encode factors: %w", err)
	}

	query := `
		INSERT INTO safety_assessments (session_id, conditions_json, score, band, recommendations_json, factors_json)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return r.pool.QueryRow(ctx, query,
		rec.SessionID, conditionsJSON, rec.Assessment.Score, string(rec.Assessment.Band), recsJSON, factorsJSON,
	).Scan(&rec.ID, &rec.CreatedAt)
}

// ListBySession returns the most recent assessments for a session, newest first.
func (r *AssessmentRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.AssessmentRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, conditions_json, score, band, recommendations_json, factors_json, created_at
		FROM safety_assessments
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.AssessmentRecord
	for rows.Next() {
		var (
			rec            models.AssessmentRecord
			conditionsJSON []byte
			recsJSON       []byte
			factorsJSON    []byte
			band           string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &conditionsJSON, &rec.Assessment.Score, &band,
			&recsJSON, &factorsJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeAssessment(&rec, band, conditionsJSON, recsJSON, factorsJSON); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// decodeAssessment fills the JSONB columns of a scanned row into rec.
func decodeAssessment(rec *models.AssessmentRecord, band string, conditionsJSON, recsJSON, factorsJSON []byte) error {
	if err := json.Unmarshal(conditionsJSON, &rec.Conditions); err != nil {
		return fmt.Errorf("failed to decode assessment %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(recsJSON, &rec.Assessment.Recommendations); err != nil {
		return fmt.Errorf("failed to decode assessment %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(factorsJSON, &rec.Assessment.Factors); err != nil {
		return fmt.Errorf("failed to decode assessment %s: %w", rec.ID, err)
	}
	if rec.Assessment.Recommendations == nil {
		rec.Assessment.Recommendations = []models.Recommendation{}
	}

	rec.Assessment.Band = models.ScoreBand(band)
	rec.Assessment.Message = scoring.BandMessage(rec.Assessment.Band)
	return nil
}
