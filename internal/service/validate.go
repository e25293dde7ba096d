package service

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/and161185/jobtrack/internal/errs"
)

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 6

var jobURLPattern = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("joburl", func(fl validator.FieldLevel) bool {
		return jobURLPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

type registerRequest struct {
	FullName string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type applicationFields struct {
	CompanyName string `validate:"required"`
	JobRole     string `validate:"required"`
	Status      string `validate:"oneof=Applied Interview Offer Rejected"`
	JobURL      string `validate:"omitempty,joburl"`
}

type fieldMessage struct {
	field string
	msg   string
}

const msgStatus = "Status must be one of Applied, Interview, Offer, Rejected"

// messages is keyed by the failing struct namespace.
var messages = map[string]fieldMessage{
	"registerRequest.FullName":      {"fullName", "Please add a name"},
	"registerRequest.Email":         {"email", "Please add a valid email"},
	"registerRequest.Password":      {"password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLen)},
	"loginRequest.Email":            {"email", "Please provide an email and password"},
	"loginRequest.Password":         {"email", "Please provide an email and password"},
	"applicationFields.CompanyName": {"companyName", "Please add a company name"},
	"applicationFields.JobRole":     {"jobRole", "Please add a job role"},
	"applicationFields.Status":      {"status", msgStatus},
	"applicationFields.JobURL":      {"jobUrl", "Please add a valid URL"},
}

// check validates v and reports the first failing field as *errs.ValidationError.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	fe := fields[0]
	if m, ok := messages[fe.StructNamespace()]; ok {
		return errs.Validation(m.field, "%s", m.msg)
	}
	return errs.Validation(fe.Field(), "Invalid %s", fe.Field())
}
