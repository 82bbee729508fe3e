// Package validation checks decoded request bodies and query parameters and
// turns failures into client-facing validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-contacts-api/pkg/apierror"
)

// phonePattern accepts an optional leading plus followed by 7 to 20 digits,
// spaces or dashes, starting and ending with a digit.
var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,18}[0-9]$`)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})

	return &Validator{validate: v}
}

// Struct validates s. The returned error is an *apierror.APIError of kind
// Validation whose message describes the first failing field and whose
// details list every failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apierror.Wrap(apierror.KindValidation, err, "invalid request")
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}

	apiErr := apierror.Wrap(apierror.KindValidation, err, messageFor(fieldErrs[0]))
	apiErr.Details = strings.Join(fields, ",")
	return apiErr
}

func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	label := displayName(field)

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be valid"
	case "phone":
		return label + " must be valid"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "oneof":
		options := strings.Fields(fe.Param())
		return fmt.Sprintf("%s must be one of %s", label, strings.Join(options, ", "))
	default:
		return label + " is invalid"
	}
}

func displayName(field string) string {
	switch field {
	case "sortBy":
		return "Sort field"
	case "refreshToken":
		return "Refresh token"
	case "":
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
