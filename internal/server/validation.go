package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/peanechestate/estateauth"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("role", validateRole)
	return v
}

func validateRole(fl validator.FieldLevel) bool {
	_, err := estateauth.ParseRole(fl.Field().String())
	return err == nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &requestError{code: "validation_failed", message: err.Error()}
	}

	meta := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		meta[fe.Field()] = formatFieldError(fe)
	}

	if len(verrs) == 1 && verrs[0].Tag() == "eqfield" {
		return &requestError{code: "password_mismatch", message: estateauth.ErrPasswordMismatch.Error(), meta: meta}
	}
	return &requestError{code: "validation_failed", message: "request validation failed", meta: meta}
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "eqfield":
		return fmt.Sprintf("must match %s", lowerFirst(fe.Param()))
	case "role":
		return "must be one of visitor, agent, admin"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
