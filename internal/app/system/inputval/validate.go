package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule, with a message suitable for API clients.
type FieldError struct {
	Field   string
	Message string
}

// Result collects the failures from Validate.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "" when there are none.
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

// Err converts the first failure into an autherr validation error.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return autherr.Invalid(r.Errors[0].Field, r.Errors[0].Message)
}

var (
	once sync.Once
	v    *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		must(v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		}))
		must(v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return IsValidPhone(fl.Field().String())
		}))
		must(v.RegisterValidation("authprovider", func(fl validator.FieldLevel) bool {
			return IsValidAuthProvider(fl.Field().String())
		}))
		must(v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		}))
		must(v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		}))
	})
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Validate checks s (a struct or pointer to struct) against its `validate`
// tags. Messages use the `label` tag, falling back to the json name.
func Validate(s any) *Result {
	res := &Result{}
	err := engine().Struct(s)
	if err == nil {
		return res
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Errors = append(res.Errors, FieldError{Field: "request", Message: "Request is invalid."})
		return res
	}

	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, fe := range verrs {
		field, label := describe(t, fe.StructField())
		res.Errors = append(res.Errors, FieldError{Field: field, Message: message(fe, label)})
	}
	return res
}

func describe(t reflect.Type, name string) (field, label string) {
	field, label = name, name
	sf, ok := t.FieldByName(name)
	if !ok {
		return field, label
	}
	if j := strings.Split(sf.Tag.Get("json"), ",")[0]; j != "" && j != "-" {
		field, label = j, j
	}
	if l := sf.Tag.Get("label"); l != "" {
		label = l
	}
	return field, label
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "email":
		return "A valid email address is required."
	case "phone":
		return fmt.Sprintf("%s must have %d to %d digits, optionally starting with +.", label, PhoneMinDigits, PhoneMaxDigits)
	case "authprovider":
		return fmt.Sprintf("%s must be one of local, google, apple.", label)
	case "httpurl":
		return fmt.Sprintf("%s must be an http or https URL.", label)
	case "objectid":
		return fmt.Sprintf("%s must be a valid id.", label)
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}
