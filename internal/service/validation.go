package service

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type registrationRules struct {
	Username  string `json:"username" validate:"min=3,max=20"`
	Email     string `json:"email" validate:"email"`
	Password  string `json:"password" validate:"min=6,maxbytes=72"`
	FirstName string `json:"firstName" validate:"max=50"`
	LastName  string `json:"lastName" validate:"max=50"`
}

type profileRules struct {
	Username       *string `json:"username" validate:"omitempty,min=3,max=20"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Password       *string `json:"password" validate:"omitempty,min=6,maxbytes=72"`
	FirstName      *string `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName       *string `json:"lastName" validate:"omitempty,min=1,max=50"`
	ProfilePicture *string `json:"profilePicture" validate:"omitempty,url"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// bcrypt only accepts inputs up to 72 bytes
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// validationError turns the first failed rule into a bad request.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return internalError("validate input", err)
	}

	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "min":
		if fe.Param() == "1" {
			msg = fmt.Sprintf("%s must not be empty", fe.Field())
		} else {
			msg = fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
	case "max", "maxbytes":
		msg = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		msg = "please enter a valid email"
	case "url":
		msg = fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		msg = fmt.Sprintf("%s is invalid", fe.Field())
	}
	return newError(KindBadRequest, msg)
}
