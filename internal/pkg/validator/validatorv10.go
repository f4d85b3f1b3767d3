package validator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/levelup/internal/pkg/strcase"
)

var ErrTranslatorNotFound = errors.New("translator not found")

// rule is a custom tag with its English message; {0} is the field name.
type rule struct {
	tag     string
	message string
	valid   func(fl validator.FieldLevel) bool
}

// reSlug matches machine keys such as room slugs and achievement keys.
var reSlug = regexp.MustCompile(`^[a-z0-9]+(?:[_-][a-z0-9]+)*$`)

var rules = []rule{
	{
		tag:     "slug",
		message: "{0} must be lowercase letters, digits, '_' or '-'",
		valid:   func(fl validator.FieldLevel) bool { return reSlug.MatchString(fl.Field().String()) },
	},
	{
		// titles and messages reach a learner's screen; whitespace alone renders as an empty toast
		tag:     "nonblank",
		message: "{0} must not be blank",
		valid:   func(fl validator.FieldLevel) bool { return strings.TrimSpace(fl.Field().String()) != "" },
	},
}

type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError maps snake_case field names to messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	b, _ := json.Marshal(map[string]string(vs)) //nolint:errcheck // a string map always marshals
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string {
	return vs
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	lang := en.New()
	trans, ok := ut.New(lang, lang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	for _, r := range rules {
		if err := register(validate, trans, r); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

func register(validate *validator.Validate, trans ut.Translator, r rule) error {
	if err := validate.RegisterValidation(r.tag, r.valid); err != nil {
		return err
	}

	return validate.RegisterTranslation(r.tag, trans,
		func(ut ut.Translator) error { return ut.Add(r.tag, r.message, false) },
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, err := ut.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("failed to translate validation error", "field_error", fe.Error(), "error", err)
				return fe.Error()
			}
			return msg
		},
	)
}

// Validate returns a V10ValidationError listing every failing field of data.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}
	return out
}
