package errors

import (
	"strings"
	"unicode"
)

// MaxCodeLength bounds the length of a single code accepted at the edges
// (CLI arguments, HTTP parameters, relation files).
const MaxCodeLength = 256

// ValidateCode validates a code for safety before it is used as a lookup
// key, a cache key component or a database parameter.
//
// The validation rules are intentionally conservative:
//   - No empty codes
//   - No control characters or null bytes
//   - Maximum length of 256 bytes
//
// Codes are otherwise opaque; no structure is assumed.
func ValidateCode(code string) error {
	if code == "" {
		return New(ErrCodeInvalidCode, "code cannot be empty")
	}
	if len(code) > MaxCodeLength {
		return New(ErrCodeInvalidCode, "code too long (max %d characters)", MaxCodeLength)
	}
	for _, r := range code {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCode, "code %q contains invalid control characters", code)
		}
	}
	return nil
}

// ValidateCodes validates every code in the list and rejects an empty list.
// what names the argument in the error message (e.g. "targets").
func ValidateCodes(what string, codes []string) error {
	if len(codes) == 0 {
		return New(ErrCodeInvalidArgument, "%s: at least one code is required", what)
	}
	for _, c := range codes {
		if err := ValidateCode(c); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMaxDepth validates an explicit depth bound. Depth limits count
// hops along a path, so anything below 1 is meaningless.
func ValidateMaxDepth(depth int) error {
	if depth < 1 {
		return New(ErrCodeInvalidDepth, "max depth must be at least 1, got %d", depth)
	}
	return nil
}

// ValidateName validates a classification name. Names end up in file
// names and database keys, so path-like input is rejected.
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidArgument, "classification name cannot be empty")
	}
	if len(name) > MaxCodeLength {
		return New(ErrCodeInvalidArgument, "classification name too long (max %d characters)", MaxCodeLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidArgument, "classification name contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidArgument, "classification name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateURL validates a backend URL string for safety.
// It ensures the URL has one of the given schemes.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidConfig, "URL must use one of the schemes %v", schemes)
}
