package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pulak-sarmah/e-com-auth-service/internal/hash"
	"github.com/pulak-sarmah/e-com-auth-service/internal/transport"
)

// NormalizeEmail trims and lower-cases so lookups and the unique index agree.
func NormalizeEmail(email string) string {
	return transport.NormalizeEmail(email)
}

// Validator checks request structs by their `validate` tags. It satisfies
// echo.Validator, so the HTTP layer and the services share one rule set.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// bcrypt only looks at the first 72 bytes; a longer password is refused
	// instead of being silently truncated.
	_ = v.RegisterValidation("bcrypt", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= hash.MaxPasswordBytes
	})
	return &Validator{v: v}
}

// Validate returns nil or a KindValidation *Error with one FieldError per
// failed field.
func (x *Validator) Validate(i any) error {
	err := x.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return internalErr(err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Msg: fieldMessage(fe)})
	}
	return &Error{Kind: KindValidation, Msg: fields[0].Msg, Fields: fields}
}

var defaultValidator = NewValidator()

var labels = map[string]string{
	"firstName": "First name",
	"lastName":  "Last name",
	"email":     "Email",
	"password":  "Password",
	"role":      "Role",
	"name":      "Tenant name",
	"address":   "Tenant address",
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	label, ok := labels[field]
	if !ok {
		label = field
	}

	switch {
	case fe.Tag() == "required":
		return label + " is required!"
	case field == "email":
		return "Invalid email format"
	case field == "password" && fe.Tag() == "bcrypt":
		return "Password must not exceed 72 bytes"
	case field == "password":
		return "Password must be between 8 and 20 characters long"
	case fe.Tag() == "alpha":
		return label + " must contain only alphabetic characters"
	case fe.Tag() == "oneof":
		return "Role must be one of admin, manager, customer"
	case fe.Tag() == "min" && fe.Param() == "1":
		return label + " must not be empty"
	case fe.Tag() == "min", fe.Tag() == "max":
		if field == "firstName" || field == "lastName" {
			return label + " must be between 2 and 20 characters long"
		}
		return label + " must be at most " + fe.Param() + " characters long"
	default:
		return label + " is invalid"
	}
}
