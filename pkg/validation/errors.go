package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError maps request field paths to messages
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// Error lists the field messages in field order
func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, field+": "+v.Errors[field])
	}
	return strings.Join(messages, "; ")
}

// NewValidationError converts validator errors, keyed by JSON path
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	v := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, err := range errs {
		v.Errors[fieldKey(err)] = message(err)
	}
	return v
}

// AddError sets the message for a field
func (v *ValidationError) AddError(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	v.Errors[field] = message
}

// HasErrors reports whether any field failed
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// GetFieldError returns the message for one field path
func (v *ValidationError) GetFieldError(field string) (string, bool) {
	msg, ok := v.Errors[field]
	return msg, ok
}

// fieldKey drops the root struct name, e.g. items[2].inputValue
func fieldKey(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

func message(err validator.FieldError) string {
	field, param := err.Field(), err.Param()

	switch err.Tag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be blank"
	case "input_type":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(InputTypes, ", "))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unitFor(err.Kind()))
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unitFor(err.Kind()))
	case "uuid", "uuid4":
		return field + " must be a valid UUID"
	}
	return field + " is invalid"
}

// unitFor names what a size bound counts for the field kind
func unitFor(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return " characters long"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	}
	return ""
}
