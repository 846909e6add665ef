package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/mmynk/cobill/internal/apperr"
)

// requestValidator adapts go-playground/validator to echo.Validator and
// reports failures as validation errors named by their JSON fields.
type requestValidator struct {
	validate *validator.Validate
}

// NewValidator returns the echo.Validator used for request bodies.
func NewValidator() echo.Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return &requestValidator{validate: v}
}

func (v *requestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation("%s", err.Error())
	}
	msgs := lo.Map(fieldErrs, func(fe validator.FieldError, _ int) string {
		return describe(fe)
	})
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
