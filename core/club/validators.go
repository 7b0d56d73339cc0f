package club

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
)

var (
	cargoTag  = "cargo"
	cargoText = "must be one of: " + strings.Join(Roles, ", ")
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(cargoTag, cargoValidation)
	core.RegisterCustomTranslation(validate, translator, cargoTag, cargoText)
}

func cargoValidation(fl validator.FieldLevel) bool {
	return IsRole(fl.Field().String())
}
