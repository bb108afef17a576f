package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid marks a model that failed validation.
var ErrInvalid = errors.New("invalid model")

// validate caches struct metadata; validator.Validate is safe for concurrent use.
var validate = validator.New() //nolint:gochecknoglobals // shared validator instance

// ValidatePosting checks the required fields and numeric bounds of p.
func ValidatePosting(p *Posting) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: posting: %w", ErrInvalid, err)
	}
	return nil
}

// ValidateProfile checks the required fields and numeric bounds of p.
func ValidateProfile(p *Profile) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: profile: %w", ErrInvalid, err)
	}
	return nil
}
