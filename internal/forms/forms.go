// Package forms holds the client-side validation schemas for user input.
// Rejections are returned as *ValidationError and are meant to be shown to the user.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their human label
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return strings.ToLower(f.Name)
	})

	return v
}

// SignInForm is the login form
type SignInForm struct {
	Email    string `label:"email" validate:"required,email"`
	Password string `label:"password" validate:"required"`
}

// ProfileForm is the profile edit form. The avatar is optional.
type ProfileForm struct {
	Name          string `label:"name" validate:"required"`
	DriverLicense string `label:"driver license" validate:"required"`
	Avatar        string `label:"avatar"`
}

// CreateUserForm is the sign-up form
type CreateUserForm struct {
	Name                 string `label:"name" validate:"required"`
	Email                string `label:"email" validate:"required,email"`
	Password             string `label:"password" validate:"required,min=6"`
	PasswordConfirmation string `label:"password confirmation" validate:"eqfield=Password"`
}

// FieldError is a single rejected field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when a form fails its schema
type ValidationError struct {
	Fields []FieldError
}

// Error returns the first message, which is what gets shown to the user
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	return e.Fields[0].Message
}

// Messages returns every field message in declaration order
func (e *ValidationError) Messages() []string {
	messages := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		messages[i] = f.Message
	}
	return messages
}

// Validate checks a form struct and returns a *ValidationError on rejection
func Validate(form interface{}) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	verr := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return verr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s is invalid", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "eqfield":
		return "passwords must match"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
