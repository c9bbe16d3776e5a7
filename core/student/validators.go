package student

import (
	"math"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kurswahl/core"
)

var (
	priorityTag  = "priority"
	priorityText = "{0} must be between 1 and 10, in steps of 0.5"
)

// InitValidators registers the student validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(priorityTag, priorityValidation)
	core.RegisterCustomTranslation(validate, translator, priorityTag, priorityText)
}

// priorityValidation accepts manually entered scores within bounds, on the 0.5 grid.
func priorityValidation(fl validator.FieldLevel) bool {
	p := fl.Field().Float()
	if p < MinPriority || p > MaxPriority {
		return false
	}
	return math.Mod(p*2, 1) == 0
}

func (ns *NewStudent) Validate(validate *validator.Validate, svc ServiceInterface) error {
	ns.Clean()
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ns.Name)
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}
