package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingID     = errors.New("id is required")
	ErrMissingName   = errors.New("name is required")
	ErrMissingBody   = errors.New("body is required")
	ErrInvalidGender = errors.New("gender must be male, female or unknown")
	ErrSelfRelation  = errors.New("a person cannot be related to themselves")
	ErrHomeNotMember = errors.New("home person must be a member of the tree")
)

// Sentinel errors for entity lookups.
var (
	ErrPersonNotFound = errors.New("person not found")
	ErrTreeNotFound   = errors.New("tree not found")
	ErrPostNotFound   = errors.New("post not found")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrMalformedRow is returned when a stored row does not match the entity schema.
var ErrMalformedRow = errors.New("malformed row")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
