package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	gradYearTag  = "gradyear"
	gradYearText = "{0} must be a valid graduation year"
	minGradYear  = 1950

	appPathTag  = "apppath"
	appPathText = "{0} must be an application path starting with '/'"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	NowFunc = time.Now // mockable
)

// NewValidator returns a validator and an english translator with the app's custom rules registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)
	return validate, translator
}

func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(gradYearTag, gradYearValidation)
	RegisterCustomTranslation(validate, translator, gradYearTag, gradYearText)
	_ = validate.RegisterValidation(appPathTag, appPathValidation)
	RegisterCustomTranslation(validate, translator, appPathTag, appPathText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateValidation converts validator errors into a *ValidationError carrying one FieldError per field.
// Any other error is returned untouched.
func TranslateValidation(err error, translator ut.Translator) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(translator)})
	}
	return NewValidationError(nil, flds...)
}

// Custom Global Validators

// gradYearValidation accepts years between minGradYear and next year.
func gradYearValidation(fl validator.FieldLevel) bool {
	year := int(fl.Field().Int())
	return year >= minGradYear && year <= NowFunc().Year()+1
}

// appPathValidation only allows absolute in-app paths (no scheme, no host).
func appPathValidation(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//")
}
