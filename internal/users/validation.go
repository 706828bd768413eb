package users

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var fieldLabels = map[string]string{
	"first_name": "First name",
	"last_name":  "Last name",
	"email":      "Email",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Service) validateCreate(in CreateInput) error {
	return toValidationError(s.validate.Struct(in))
}

// validateUpdate checks only the fields the caller supplied.
func (s *Service) validateUpdate(in UpdateInput) error {
	fields := make(map[string]string)
	check := func(name string, value *string, tag string) {
		if value == nil {
			return
		}
		if err := s.validate.Var(*value, tag); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				fields[name] = fieldMessage(name, verrs[0].Tag())
				return
			}
			fields[name] = fieldMessage(name, "")
		}
	}
	check("first_name", in.FirstName, "required")
	check("last_name", in.LastName, "required")
	check("email", in.Email, "required,email")
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe.Field(), fe.Tag())
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(field, tag string) string {
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}
	switch tag {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	default:
		return label + " is invalid"
	}
}

func normalizeCreate(in CreateInput) CreateInput {
	return CreateInput{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
	}
}

func normalizeUpdate(in UpdateInput) UpdateInput {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	return UpdateInput{
		FirstName: trim(in.FirstName),
		LastName:  trim(in.LastName),
		Email:     trim(in.Email),
	}
}
