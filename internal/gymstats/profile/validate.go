package profile

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/2beens/coachai/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names, that is what API callers see
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation [%s]: %s", tag, err))
	}
}

// validateStruct runs the struct tags and converts the first failure into a ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}

	fe := fieldErrs[0]
	return apperrors.NewValidationError(fe.Field(), reasonFor(fe))
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must be present and non-empty"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "finite":
		return "must be a finite number"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match the %s layout", fe.Param())
	default:
		return fmt.Sprintf("failed on [%s]", fe.Tag())
	}
}

func validWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return apperrors.NewValidationError("weight", "must be a positive number")
	}
	return nil
}
