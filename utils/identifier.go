package utils

import (
	"regexp"

	"github.com/google/uuid"
)

var (
	identifierRun     = regexp.MustCompile(`[a-z0-9.\-]+`)
	identifierPattern = regexp.MustCompile(`^[a-z0-9.\-]+$`)
)

// IsValidIdentifier reports whether id consists only of [a-z0-9.-].
// Identifiers are interpolated into backend queries, so this must hold
// before any query is built.
func IsValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}

// ExtractIdentifier returns the first run of allowed characters in raw, or ""
// if there is none.
func ExtractIdentifier(raw string) string {
	return identifierRun.FindString(raw)
}

// NewIdentifier suggests a fresh random identifier for a new embedder.
func NewIdentifier() string {
	return uuid.NewString()
}
