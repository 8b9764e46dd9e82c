package dto

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("username", validateUsername)

	// decimals are validated as numbers so gt/gte/lte work on money fields
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
}

func GetValidator() *validator.Validate {
	return validate
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasNumber && hasSpecial
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

// FieldError is a cross-field rule violation that struct tags cannot express.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

var tagMessages = map[string]func(fe validator.FieldError) string{
	"required":        func(fe validator.FieldError) string { return fe.Field() + " is required" },
	"email":           func(validator.FieldError) string { return "Invalid email format" },
	"min":             func(fe validator.FieldError) string { return fe.Field() + " must be at least " + fe.Param() },
	"max":             func(fe validator.FieldError) string { return fe.Field() + " must be at most " + fe.Param() },
	"gt":              func(fe validator.FieldError) string { return fe.Field() + " must be greater than " + fe.Param() },
	"gte":             func(fe validator.FieldError) string { return fe.Field() + " must be at least " + fe.Param() },
	"lte":             func(fe validator.FieldError) string { return fe.Field() + " must be at most " + fe.Param() },
	"url":             func(fe validator.FieldError) string { return fe.Field() + " must be a valid URL" },
	"oneof":           func(fe validator.FieldError) string { return fe.Field() + " must be one of: " + fe.Param() },
	"dive":            func(fe validator.FieldError) string { return fe.Field() + " contains invalid items" },
	"eqfield":         func(validator.FieldError) string { return "Passwords do not match" },
	"strong_password": func(validator.FieldError) string { return "Password must contain at least 8 characters with uppercase, lowercase, number, and special character" },
	"username":        func(validator.FieldError) string { return "Username can only contain letters, numbers, underscore and dash (3-30 characters)" },
}

// FormatValidationErrors turns validator or FieldError failures into per-field messages.
func FormatValidationErrors(err error) []ValidationError {
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return []ValidationError{{Field: fieldErr.Field, Message: fieldErr.Message}}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		message := fe.Field() + " is invalid"
		if format, ok := tagMessages[fe.Tag()]; ok {
			message = format(fe)
		}
		out = append(out, ValidationError{Field: fe.Field(), Message: message})
	}
	return out
}

type Validator interface {
	Validate() error
}

// CreateValidationError wraps a failed Validate() into the VALIDATION_ERROR envelope.
func CreateValidationError(err error, message string) error {
	return shared.NewValidationError(err, message).WithDetails(FormatValidationErrors(err))
}
