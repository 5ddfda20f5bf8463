// Package uuid provides UUID v4 generation and validation utilities.
package uuid

import (
	"regexp"

	"github.com/google/uuid"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/models"
)

// UUID v4 format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
// where y is one of [8, 9, a, b] (variant bits)
var uuidV4Regex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// New generates a new UUID v4.
func New() string {
	return uuid.New().String()
}

// NewID generates a new model identifier.
func NewID() models.UUID {
	return models.UUID(New())
}

// IsValid checks if a string is a valid UUID v4.
// Enforces strict format with dashes and correct variant bits.
func IsValid(s string) bool {
	return uuidV4Regex.MatchString(s)
}

// Validate returns a validation error naming the field when s is not a UUID v4.
func Validate(field, s string) error {
	if s == "" {
		return apperrors.Validation("%s is required", field)
	}
	if !IsValid(s) {
		return apperrors.Validation("Invalid %s %q", field, s)
	}
	return nil
}
