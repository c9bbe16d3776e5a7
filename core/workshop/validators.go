package workshop

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kurswahl/core"
)

var (
	bandTag  = "band"
	bandText = "{0} must be one of band1, band2"
)

// InitValidators registers the workshop validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(bandTag, bandValidation)
	core.RegisterCustomTranslation(validate, translator, bandTag, bandText)
}

// bandValidation checks that a value is a known Band.
func bandValidation(fl validator.FieldLevel) bool {
	return Band(fl.Field().String()).Valid()
}

func (nw *NewWorkshop) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nw.Clean()
	if err := validate.Struct(nw); err != nil {
		return err
	}
	return svc.CheckUniqueness(nw.Name)
}

func (uw *UpdateWorkshop) Validate(validate *validator.Validate) error {
	return validate.Struct(uw)
}
