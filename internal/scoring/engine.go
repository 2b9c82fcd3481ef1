// Package scoring turns driving conditions into a safety score and advice.
// Every function here is pure and total over its input.
package scoring

import (
	"math"

	"drivesafe-backend/internal/models"
)

const (
	baseScore = 100

	hoursThreshold   = 8.0
	hoursPenaltyRate = 5.0
	speedThreshold   = 65.0
	speedPenaltyRate = 2.0
	nightPenalty     = 10
)

const (
	categoryHours   = "Driving Hours"
	categorySpeed   = "Speed"
	categoryWeather = "Weather"
	categoryNight   = "Night Driving"

	tipHours = "Consider taking breaks every 2 hours or splitting your driving time. Fatigue increases accident risk."
	tipSpeed = "Higher speeds increase stopping distance and reduce reaction time. Consider reducing speed."
	tipNight = "Ensure all lights are working properly. Reduce speed and be extra vigilant for pedestrians and wildlife."
)

// ComputeScore returns the safety score in [0,100].
func ComputeScore(c models.DrivingConditions) int {
	score := float64(baseScore)

	if c.HoursDriven > hoursThreshold {
		score -= hoursPenaltyRate * (c.HoursDriven - hoursThreshold)
	}
	if c.SpeedMph > speedThreshold {
		score -= speedPenaltyRate * (c.SpeedMph - speedThreshold)
	}
	score -= float64(weatherPenalty(c.Weather))
	if c.NightDriving {
		score -= nightPenalty
	}

	return clamp(int(math.Round(clampFloat(score))))
}

// ComputeRecommendations returns at most one recommendation per triggered
// category, ordered hours, speed, weather, night.
func ComputeRecommendations(c models.DrivingConditions) []models.Recommendation {
	recs := []models.Recommendation{}

	if c.HoursDriven > hoursThreshold {
		recs = append(recs, models.Recommendation{
			Category: categoryHours,
			Tip:      tipHours,
			Priority: models.PriorityHigh,
		})
	}

	if c.SpeedMph > speedThreshold {
		recs = append(recs, models.Recommendation{
			Category: categorySpeed,
			Tip:      tipSpeed,
			Priority: models.PriorityMedium,
		})
	}

	if tip, ok := weatherTip(c.Weather); ok {
		recs = append(recs, models.Recommendation{
			Category: categoryWeather,
			Tip:      tip,
			Priority: models.PriorityHigh,
		})
	}

	if c.NightDriving {
		recs = append(recs, models.Recommendation{
			Category: categoryNight,
			Tip:      tipNight,
			Priority: models.PriorityMedium,
		})
	}

	return recs
}

// ComputeFactors returns the per-factor breakdown shown in the chart.
func ComputeFactors(c models.DrivingConditions) models.FactorBreakdown {
	alertness := 90
	if c.NightDriving {
		alertness = 70
	}

	return models.FactorBreakdown{
		Speed:     clamp(int(math.Round(clampFloat(100 - speedPenaltyRate*(c.SpeedMph-speedThreshold))))),
		Weather:   weatherFactor(c.Weather),
		Time:      clamp(int(math.Round(clampFloat(100 - hoursPenaltyRate*(c.HoursDriven-hoursThreshold))))),
		Road:      80,
		Alertness: alertness,
	}
}

// Assess runs the score, banding, recommendation and factor functions over
// the same conditions.
func Assess(c models.DrivingConditions) models.SafetyAssessment {
	score := ComputeScore(c)
	band := Band(score)

	return models.SafetyAssessment{
		Score:           score,
		Band:            band,
		Message:         BandMessage(band),
		Recommendations: ComputeRecommendations(c),
		Factors:         ComputeFactors(c),
	}
}

func weatherPenalty(w models.Weather) int {
	switch w {
	case models.WeatherClear:
		return 0
	case models.WeatherRain:
		return 15
	case models.WeatherSnow:
		return 25
	case models.WeatherFog:
		return 20
	default:
		return 0
	}
}

func weatherTip(w models.Weather) (string, bool) {
	switch w {
	case models.WeatherRain:
		return "Reduce speed and increase following distance in rain. Use headlights and ensure wipers work properly.", true
	case models.WeatherSnow:
		return "Significantly reduce speed in snow. Use winter tires and maintain longer following distances.", true
	case models.WeatherFog:
		return "Use low-beam headlights in fog. Reduce speed and use fog lights if available.", true
	case models.WeatherClear:
		return "", false
	default:
		return "", false
	}
}

func weatherFactor(w models.Weather) int {
	switch w {
	case models.WeatherClear:
		return 100
	case models.WeatherRain:
		return 70
	case models.WeatherSnow:
		return 50
	case models.WeatherFog:
		return 60
	default:
		return 100
	}
}

func clampFloat(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
