package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iho/commissionledger/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names so errors match the request body.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		// decimal.Decimal is a struct; the value is read directly instead of
		// through a custom type func.
		if err := v.RegisterValidation("nonnegative_decimal", func(fl validator.FieldLevel) bool {
			value, ok := fl.Field().Interface().(decimal.Decimal)
			if !ok {
				return false
			}
			return !value.IsNegative()
		}); err != nil {
			panic(fmt.Sprintf("register nonnegative_decimal: %v", err))
		}

		if err := v.RegisterValidation("notblank_trimmed", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		}); err != nil {
			panic(fmt.Sprintf("register notblank_trimmed: %v", err))
		}

		validate = v
	})

	return validate
}

// Validate checks req against its struct tags and converts the first
// violation into the matching domain error.
func Validate(req any) error {
	err := validatorInstance().Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required", "notblank_trimmed":
		return &domain.MissingRequiredFieldError{Field: fe.Field()}
	case "nonnegative_decimal":
		return &domain.InvalidValueError{Field: fe.Field(), Value: fmt.Sprint(fe.Value()), Reason: "must not be negative"}
	case "max":
		return &domain.InvalidValueError{Field: fe.Field(), Value: truncate(fmt.Sprint(fe.Value())), Reason: "exceeds " + fe.Param() + " characters"}
	default:
		return &domain.InvalidValueError{Field: fe.Field(), Value: fmt.Sprint(fe.Value()), Reason: "failed " + fe.Tag() + " check"}
	}
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= 16 {
		return s
	}
	return string(runes[:16]) + "..."
}
