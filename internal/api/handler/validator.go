package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldsError lists the request fields that failed validation.
type FieldsError struct {
	Message string
	Fields  []string
}

func (e *FieldsError) Error() string {
	return e.Message
}

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := &FieldsError{Message: "Campos requeridos faltantes"}
	missingOnly := true
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		out.Fields = append(out.Fields, fe.Field())
		if fe.Tag() != "required" {
			missingOnly = false
		}
		msgs = append(msgs, fieldError(fe))
	}
	if !missingOnly {
		out.Message = strings.Join(msgs, "; ")
	}
	return out
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "El campo " + field + " es requerido"
	case "email":
		return "El campo " + field + " debe ser un email válido"
	case "min":
		return fmt.Sprintf("El campo %s debe tener al menos %s caracteres", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("El campo %s debe ser uno de: %s", field, fe.Param())
	default:
		return fmt.Sprintf("El campo %s es inválido (%s)", field, fe.Tag())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
