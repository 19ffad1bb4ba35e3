package handler

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo so handlers
// can call c.Validate on bound request bodies.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator installed on the echo instance.
func NewValidator() *RequestValidator {
	return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i interface{}) error { return rv.v.Struct(i) }
