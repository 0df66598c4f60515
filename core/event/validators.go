package event

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
)

var (
	endBeforeStartTag  = "endafterstart"
	endBeforeStartText = "the event cannot end before it starts"
)

// InitValidators registers the event rules on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(inputStructValidation, Input{})
	core.RegisterCustomTranslation(validate, translator, endBeforeStartTag, endBeforeStartText)
}

// inputStructValidation does struct level validation on Input.
func inputStructValidation(sl validator.StructLevel) {
	in, ok := sl.Current().Interface().(Input)
	if !ok {
		return
	}
	if !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		sl.ReportError(in.EndDate, "endDate", "EndDate", endBeforeStartTag, "")
	}
}
