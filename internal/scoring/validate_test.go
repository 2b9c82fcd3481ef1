package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesafe-backend/internal/models"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(conditions(8, 65, models.WeatherClear, false)))
	require.NoError(t, Validate(conditions(0, 0, models.WeatherFog, true)))
	require.NoError(t, Validate(conditions(24, 200, models.WeatherSnow, true)))

	err := Validate(conditions(-1, 250, "hail", false))
	require.Error(t, err)

	fields, ok := err.(FieldErrors)
	require.True(t, ok)
	assert.Equal(t, "must be at least 0", fields["hours_driven"])
	assert.Equal(t, "must be at most 200", fields["speed_mph"])
	assert.Equal(t, "must be one of: clear rain snow fog", fields["weather"])
}

func TestValidate_MissingWeather(t *testing.T) {
	err := Validate(conditions(1, 1, "", false))

	fields, ok := err.(FieldErrors)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["weather"])
}
