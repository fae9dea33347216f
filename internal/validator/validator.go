package validator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is the base for every malformed-input error so callers can
// test the whole category with errors.Is.
var ErrValidation = errors.New("validation failed")

var (
	ErrOwnerNameRequired  = fmt.Errorf("%w: owner name is required", ErrValidation)
	ErrCredentialTooShort = fmt.Errorf("%w: credential must be at least %d characters", ErrValidation, MinCredentialLength)
	ErrInvalidAccountKind = fmt.Errorf("%w: account kind must be savings or current", ErrValidation)
)

const MinCredentialLength = 6

func ValidateOwnerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrOwnerNameRequired
	}
	return nil
}

func ValidateCredential(credential string) error {
	if len(credential) < MinCredentialLength {
		return ErrCredentialTooShort
	}
	return nil
}
