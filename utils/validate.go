package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate shares gin's "binding" tag so request DTOs are checked the same
// way whether they arrive through a handler or are passed to a service directly.
var validate = NewValidator()

// NewValidator returns a validator that reads "binding" tags and reports json field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(JSONFieldName)
	return v
}

// JSONFieldName names a struct field by its json tag.
func JSONFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// ValidateStruct checks s and converts failures to a ValidationError listing the fields.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if fields := ValidationFields(err); len(fields) > 0 {
		return ValidationError("invalid input", fields...)
	}
	return ValidationError(err.Error())
}

// ValidationFields extracts the failing field names from a validator error.
func ValidationFields(err error) []string {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return nil
	}
	fields := make([]string, 0, len(vErrs))
	seen := make(map[string]bool, len(vErrs))
	for _, fe := range vErrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		fields = append(fields, fe.Field())
	}
	return fields
}
