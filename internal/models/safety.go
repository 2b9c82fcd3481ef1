package models

import (
	"time"

	"github.com/google/uuid"
)

type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherRain  Weather = "rain"
	WeatherSnow  Weather = "snow"
	WeatherFog   Weather = "fog"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type ScoreBand string

const (
	BandExcellent ScoreBand = "excellent"
	BandGood      ScoreBand = "good"
	BandFair      ScoreBand = "fair"
	BandPoor      ScoreBand = "poor"
)

// DrivingConditions is the calculator input. Hours and speed may be fractional.
type DrivingConditions struct {
	HoursDriven  float64 `json:"hours_driven" validate:"gte=0,lte=24"`
	SpeedMph     float64 `json:"speed_mph" validate:"gte=0,lte=200"`
	Weather      Weather `json:"weather" validate:"required,oneof=clear rain snow fog"`
	NightDriving bool    `json:"night_driving"`
}

type Recommendation struct {
	Category string   `json:"category"`
	Tip      string   `json:"tip"`
	Priority Priority `json:"priority"`
}

// FactorBreakdown holds the per-factor chart values, each in [0,100].
type FactorBreakdown struct {
	Speed     int `json:"speed"`
	Weather   int `json:"weather"`
	Time      int `json:"time"`
	Road      int `json:"road"`
	Alertness int `json:"alertness"`
}

type SafetyAssessment struct {
	Score           int              `json:"score"`
	Band            ScoreBand        `json:"band"`
	Message         string           `json:"message"`
	Recommendations []Recommendation `json:"recommendations"`
	Factors         FactorBreakdown  `json:"factors"`
}

// AssessmentRecord is a stored assessment for a chat session.
type AssessmentRecord struct {
	ID         uuid.UUID         `json:"id"`
	SessionID  uuid.UUID         `json:"session_id"`
	Conditions DrivingConditions `json:"conditions"`
	Assessment SafetyAssessment  `json:"assessment"`
	CreatedAt  time.Time         `json:"created_at"`
}

type BandInfo struct {
	Band     ScoreBand `json:"band"`
	MinScore int       `json:"min_score"`
	Message  string    `json:"message"`
}
