package utils

import "github.com/google/uuid"

// NewID returns a random RFC 4122 v4 identifier for persisted analyses.
func NewID() string {
	return uuid.NewString()
}

// IsID reports whether s parses as a UUID.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
