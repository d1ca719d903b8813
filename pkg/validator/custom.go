package validator

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxSearchRadiusM bounds a footage request search radius.
const MaxSearchRadiusM = 50_000

func RegisterCustomValidations(validate *validator.Validate) {
	validate.RegisterValidation("lat", validateLat)
	validate.RegisterValidation("lng", validateLng)
	validate.RegisterValidation("radius_m", validateRadiusM)
	validate.RegisterValidation("notzero_time", validateNotZeroTime)
}

func validateLat(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0
}

func validateLng(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180.0 && lng <= 180.0
}

func validateRadiusM(fl validator.FieldLevel) bool {
	radius := fl.Field().Float()
	return radius >= 0 && radius <= MaxSearchRadiusM
}

func validateNotZeroTime(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && !t.IsZero()
}
