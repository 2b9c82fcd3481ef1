package scoring

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"drivesafe-backend/internal/models"
)

var validate = validator.New()

// FieldErrors lists rejected input fields keyed by their JSON name.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	return fmt.Sprintf("invalid driving conditions (%d fields)", len(e))
}

// Validate applies the strict input policy used at the API edge. The scoring
// functions themselves accept any input.
func Validate(c models.DrivingConditions) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := FieldErrors{}
	for _, fe := range verrs {
		fields[jsonField(fe.Field())] = fieldMessage(fe)
	}
	return fields
}

func jsonField(name string) string {
	switch name {
	case "HoursDriven":
		return "hours_driven"
	case "SpeedMph":
		return "speed_mph"
	case "Weather":
		return "weather"
	default:
		return name
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
