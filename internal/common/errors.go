// Package common defines shared sentinel errors and small helpers used across
// the learnkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors raised when a caller violates a documented precondition.
	ErrorValidation = errors.New("validation error")
)
