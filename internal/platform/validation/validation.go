// Package validation wraps go-playground/validator with English messages keyed by JSON field names.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	requiredTag  = "required"
	requiredText = "{0} is required"
	emailTag     = "email"
	emailText    = "{0} must be a valid email address"
)

// FieldError is used to indicate an error with a specific field.
type FieldError struct {
	Field string
	Error string
}

// Error lists the fields that failed validation.
type Error struct {
	Err    error
	Fields []FieldError
}

// NewError returns an *Error wrapping err.
func NewError(err error, flds ...FieldError) error {
	return &Error{err, flds}
}

func (err *Error) Error() string {
	if len(err.Fields) == 0 {
		if err.Err == nil {
			return "validation failed"
		}
		return err.Err.Error()
	}
	parts := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return strings.Join(parts, "; ")
}

func (err *Error) Unwrap() error { return err.Err }

// Field returns the message for the named field, or "" when it is valid.
func (err *Error) Field(name string) string {
	for _, f := range err.Fields {
		if f.Field == name {
			return f.Error
		}
	}
	return ""
}

// Validator pairs a validator with its English translator.
type Validator struct {
	Validate   *validator.Validate
	Translator ut.Translator
}

// New returns a Validator reporting fields by their JSON names.
func New() *Validator {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{Validate: validate, Translator: translator}
	v.RegisterTranslation(requiredTag, requiredText, true)
	v.RegisterTranslation(emailTag, emailText, true)
	return v
}

// RegisterTranslation registers the message for tag. {0} is replaced by the field name.
func (v *Validator) RegisterTranslation(tag, text string, override bool) {
	_ = v.Validate.RegisterTranslation(
		tag, v.Translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Check validates s and returns an *Error listing every failing field, or nil.
func (v *Validator) Check(s interface{}) error {
	err := v.Validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewError(err)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Error: fe.Translate(v.Translator)})
	}
	return NewError(err, fields...)
}
