// Package inputval validates request and config input with struct tags.
//
// Field names in messages come from the `label` tag:
//
//	type valueInput struct {
//	    Name string `validate:"required,max=128" label:"name"`
//	}
package inputval

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
		return f.Name
	})
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return IsValidHTTPURL(fl.Field().String())
	})
	_ = v.RegisterValidation("evmaddr", func(fl validator.FieldLevel) bool {
		return common.IsHexAddress(fl.Field().String())
	})
	return v
}

// FieldError is one failed rule, rendered for the caller.
type FieldError struct {
	Field   string
	Message string
}

// Result collects the failures of one Validate call.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Validate checks s against its `validate` tags.
func Validate(s any) *Result {
	res := &Result{}
	err := validate.Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return res
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "email":
		return "A valid email address is required."
	case "httpurl":
		return fmt.Sprintf("%s must be an http or https URL.", fe.Field())
	case "evmaddr":
		return fmt.Sprintf("%s must be a 0x-prefixed 20-byte address.", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}

// IsValidEmail reports whether s is a bare email address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && validate.Var(s, "email") == nil
}

// IsValidHTTPURL reports whether s is an absolute http(s) URL with a host.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
