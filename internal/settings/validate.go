// Package settings validates and persists the user's notification settings.
package settings

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// ErrInvalidSettings is matched by every error returned from Validate.
var ErrInvalidSettings = errors.New("invalid notification settings")

// ErrTranslatorNotFound indicates the English translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// ValidationError maps a field path such as "upcoming_payments.days_before[0]"
// to a human readable message.
type ValidationError map[string]string

// Error implements the error interface.
func (e ValidationError) Error() string {
	if len(e) == 0 {
		return ErrInvalidSettings.Error()
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e[f])
	}
	return ErrInvalidSettings.Error() + ": " + strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is match ErrInvalidSettings.
func (e ValidationError) Unwrap() error {
	return ErrInvalidSettings
}

type settingsValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	defaultValidator     *settingsValidator
	defaultValidatorErr  error
	defaultValidatorOnce sync.Once
)

func newValidator() (*settingsValidator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}

	return &settingsValidator{validate: validate, translator: enTrans}, nil
}

// Validate checks s against the field constraints. Failures are returned as a
// ValidationError.
func Validate(s models.NotificationSettings) error {
	defaultValidatorOnce.Do(func() {
		defaultValidator, defaultValidatorErr = newValidator()
	})
	if defaultValidatorErr != nil {
		return defaultValidatorErr
	}
	return defaultValidator.check(s)
}

func (v *settingsValidator) check(s models.NotificationSettings) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return fmt.Errorf("failed to validate settings: %w", err)
	}

	out := make(ValidationError, len(validateErrs))
	for _, fe := range validateErrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out[field] = fe.Translate(v.translator)
	}
	return out
}
