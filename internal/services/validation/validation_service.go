// -----------------------------------------------------------------------
// Package validation turns go-playground/validator results into
// per-field messages keyed by the JSON field name
// -----------------------------------------------------------------------

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to a human readable message
type FieldErrors map[string]string

// Fields returns the failing field names in sorted order
func (f FieldErrors) Fields() []string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Error implements error so FieldErrors can travel through error returns
func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for _, field := range f.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", field, f[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Service validates structs using validator tags
type Service struct {
	validate *validator.Validate
	messages map[string]string
}

// NewService creates a validation service. The validator caches struct metadata,
// so one instance should be shared.
func NewService() *Service {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	return &Service{
		validate: validate,
		messages: make(map[string]string),
	}
}

// SetMessage overrides the message for one field and tag, e.g. ("name", "min")
func (s *Service) SetMessage(field, tag, message string) {
	s.messages[field+"."+tag] = message
}

// Struct validates v and returns nil when it passes
func (s *Service) Struct(v interface{}) FieldErrors {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return FieldErrors{"_": err.Error()}
	}

	result := make(FieldErrors, len(validationErrors))
	for _, fe := range validationErrors {
		field := fieldPath(fe)
		if _, exists := result[field]; exists {
			continue
		}
		result[field] = s.message(field, fe)
	}
	return result
}

// fieldPath drops the struct name prefix from the namespace ("TripPlanRequest.places" -> "places")
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func (s *Service) message(field string, fe validator.FieldError) string {
	if msg, ok := s.messages[field+"."+fe.Tag()]; ok {
		return msg
	}

	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Please enter a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s needs at least %s item(s)", label, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// humanize turns "duration_days" into "Duration days"
func humanize(field string) string {
	if field == "" {
		return "Value"
	}
	words := strings.ReplaceAll(field, "_", " ")
	return strings.ToUpper(words[:1]) + words[1:]
}
