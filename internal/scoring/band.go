package scoring

import "drivesafe-backend/internal/models"

var bands = []models.BandInfo{
	{Band: models.BandExcellent, MinScore: 80, Message: "Excellent driving conditions! Keep up the safe driving habits."},
	{Band: models.BandGood, MinScore: 60, Message: "Good driving conditions. Consider the recommendations for improvement."},
	{Band: models.BandFair, MinScore: 40, Message: "Fair driving conditions. Please review the recommendations carefully."},
	{Band: models.BandPoor, MinScore: 0, Message: "Poor driving conditions. Strongly consider the recommendations for your safety."},
}

// Band maps a score to its display band.
func Band(score int) models.ScoreBand {
	switch {
	case score >= 80:
		return models.BandExcellent
	case score >= 60:
		return models.BandGood
	case score >= 40:
		return models.BandFair
	default:
		return models.BandPoor
	}
}

func BandMessage(b models.ScoreBand) string {
	for _, info := range bands {
		if info.Band == b {
			return info.Message
		}
	}
	return ""
}

// Bands returns the band table, highest first.
func Bands() []models.BandInfo {
	out := make([]models.BandInfo, len(bands))
	copy(out, bands)
	return out
}
