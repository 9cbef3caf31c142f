package errors

import (
	"strings"
	"unicode"
)

// ValidateEntityID validates a caller-supplied node, edge, or container
// identifier. The rules are intentionally conservative:
//
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 256 characters
//   - No "he_" prefix (reserved for derived hyper-edge IDs)
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "entity ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidID, "entity ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "entity ID contains control characters")
		}
	}

	if strings.HasPrefix(id, "he_") {
		return New(ErrCodeInvalidID, "entity ID prefix %q is reserved for hyper-edges", "he_")
	}

	return nil
}

// ValidateViewName validates a saved-view name for safety across the
// file, Redis, and MongoDB backends. It ensures the name is a simple
// token without path components.
func ValidateViewName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "view name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "view name too long (max 128 characters)")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "view name cannot contain path separators")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "view name cannot start with a dot")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "view name contains control characters")
		}
	}

	return nil
}

// ValidatePath validates a file path supplied on the command line or
// over the API for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
