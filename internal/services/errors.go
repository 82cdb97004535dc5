package services

import (
	"fmt"

	"github.com/dmitrijs2005/learnkeeper/internal/common"
)

var (
	ErrUserNotFound = fmt.Errorf("user %w", common.ErrorNotFound)

	ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", common.ErrorUnauthorized)
	ErrTooManyAttempts    = fmt.Errorf("too many login attempts, try again later: %w", common.ErrorUnauthorized)

	ErrInvalidUsername = fmt.Errorf("%w: username must not be empty", common.ErrorValidation)
	ErrInvalidAge      = fmt.Errorf("%w: age must be a non-negative integer", common.ErrorValidation)
	ErrInvalidHours    = fmt.Errorf("%w: session hours must be a finite non-negative number", common.ErrorValidation)
	ErrInvalidScore    = fmt.Errorf("%w: correct answers must be between 0 and 3", common.ErrorValidation)
	ErrInvalidCourse   = fmt.Errorf("%w: course must not be empty", common.ErrorValidation)

	// ErrInsufficientData is returned by statistics over an empty sample.
	ErrInsufficientData = fmt.Errorf("not enough data: %w", common.ErrorNotFound)
)
