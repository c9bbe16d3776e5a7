package rule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/workshop"
)

var (
	belegungTag  = "belegung"
	belegungText = "a coverage rule needs at least one workshop"

	folgekursTag  = "folgekurs"
	folgekursText = "a succession rule needs two different workshops"
)

// InitValidators registers the rule validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(ruleStructValidation, NewRule{})
	core.RegisterCustomTranslation(validate, translator, belegungTag, belegungText)
	core.RegisterCustomTranslation(validate, translator, folgekursTag, folgekursText)
}

// ruleStructValidation checks the fields each kind depends on.
func ruleStructValidation(sl validator.StructLevel) {
	nr := sl.Current().Interface().(NewRule)
	switch nr.Kind {
	case KindBelegung:
		if len(nr.Workshops) == 0 {
			sl.ReportError(nr.Workshops, "workshops", "Workshops", belegungTag, "")
		}
	case KindFolgekurs:
		if nr.From == "" {
			sl.ReportError(nr.From, "from", "From", folgekursTag, "")
		}
		if nr.To == "" || workshop.NormalizeName(nr.To) == workshop.NormalizeName(nr.From) {
			sl.ReportError(nr.To, "to", "To", folgekursTag, "")
		}
	}
}

func (nr *NewRule) Clean() {
	nr.Kind = core.CleanString(nr.Kind, true /* lower */)
	nr.Name = core.CleanString(nr.Name)
	nr.From = workshop.CleanName(nr.From)
	nr.To = workshop.CleanName(nr.To)
	workshops := make([]string, 0, len(nr.Workshops))
	for _, w := range nr.Workshops {
		if w = workshop.CleanName(w); w != "" {
			workshops = append(workshops, w)
		}
	}
	nr.Workshops = workshops
	if nr.Kind == KindFolgekurs {
		nr.Workshops = nil
	} else {
		nr.From, nr.To, nr.SameBand = "", "", false
	}
}

func (nr *NewRule) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nr.Clean()
	if err := validate.Struct(nr); err != nil {
		return err
	}
	return svc.CheckUniqueness(nr.Name)
}
