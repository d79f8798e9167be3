package webserver

import (
	"github.com/go-playground/validator/v10"
)

// EchoValidator adapts go-playground validator to echo's Validator.
type EchoValidator struct {
	validate *validator.Validate
}

func NewEchoValidator() *EchoValidator {
	return &EchoValidator{validate: validator.New()}
}

func (v *EchoValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
