package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// InputTypes lists the identifier kinds accepted for analysis
var InputTypes = []string{"url", "phone", "email", "social", "media"}

var (
	validate *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator instance with custom tags registered
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON field names rather than Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("input_type", validateInputType)
		_ = validate.RegisterValidation("notblank", validateNotBlank)
	})
	return validate
}

// ValidateStruct validates a struct and returns a *ValidationError on failure
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		return NewValidationError(valErrs)
	}
	return err
}

// IsInputType reports whether v is an accepted input type
func IsInputType(v string) bool {
	for _, t := range InputTypes {
		if t == v {
			return true
		}
	}
	return false
}

func validateInputType(fl validator.FieldLevel) bool {
	return IsInputType(fl.Field().String())
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
