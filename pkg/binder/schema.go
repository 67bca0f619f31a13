package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"lambda-http-router/pkg/registry"
)

// ErrBodyRequired is returned by schema validators for an absent body
var ErrBodyRequired = errors.New("body is required")

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RawValidator is implemented by validators that decode the body text
// themselves instead of working on the generic parsed value.
type RawValidator interface {
	ValidateRaw(raw string) (any, error)
}

// SchemaValidator decodes the body into T and checks its `validate` tags
type SchemaValidator[T any] struct{}

// Schema returns a body validator producing *T
func Schema[T any]() *SchemaValidator[T] {
	return &SchemaValidator[T]{}
}

var _ registry.TypedValidator = (*SchemaValidator[struct{}])(nil)

// OutputType is *T
func (s *SchemaValidator[T]) OutputType() reflect.Type {
	return reflect.TypeOf((*T)(nil))
}

// Validate converts an already parsed body into *T
func (s *SchemaValidator[T]) Validate(body any) (any, error) {
	if body == nil {
		return nil, ErrBodyRequired
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return s.ValidateRaw(string(data))
}

// ValidateRaw decodes raw into *T
func (s *SchemaValidator[T]) ValidateRaw(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrBodyRequired
	}

	out := new(T)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if err := validateValue(out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateValue(v any) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Struct:
		return validate.Struct(rv.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := validateValue(rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

// FieldError describes one failed validation rule
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func fieldErrors(err error) []FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", fe.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", fe.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
		case "uuid":
			message = fmt.Sprintf("%s must be a valid UUID", fe.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
		default:
			message = fmt.Sprintf("%s is invalid", fe.Field())
		}

		details = append(details, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: message,
		})
	}
	return details
}
