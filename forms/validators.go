// Package forms decodes and validates the portal's HTML forms. Validation
// failures stay here and never reach the session layer.
package forms

import (
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/schema"
)

const formTag = "schema"

var (
	requiredTag  = "required"
	requiredText = "{0} is required"
)

// Validator checks decoded forms and renders failures in English
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
	decoder    *schema.Decoder
}

func NewValidator() *Validator {
	validate := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use form field names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get(formTag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	v := &Validator{validate: validate, translator: translator, decoder: decoder}
	v.registerTranslation(requiredTag, requiredText, true)
	return v
}

func (v *Validator) registerTranslation(tag, text string, override bool) {
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// FieldErrors maps a form field name to its message
type FieldErrors map[string]string

// Error renders "field: message" pairs in field order
func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, k := range fields {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

// Bind decodes values into dst and validates it. The error is FieldErrors
// when only validation failed.
func (v *Validator) Bind(dst any, values url.Values) error {
	if err := v.decoder.Decode(dst, values); err != nil {
		return err
	}
	return v.Check(dst)
}

// Check validates an already populated form
func (v *Validator) Check(form any) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(v.translator)
	}
	return fields
}
