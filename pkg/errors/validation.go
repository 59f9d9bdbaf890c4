package errors

import (
	"path"
	"strings"
	"unicode"
)

// ValidateRepoPath validates a filesystem path handed to the CLI or server
// before repository discovery runs.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateRepoPath(p string) error {
	if p == "" {
		return New(ErrCodeInvalidPath, "repository path cannot be empty")
	}

	const maxPathLength = 4096
	if len(p) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range p {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateRefPattern validates a reference glob such as "*", "heads/*" or
// "tags/v1.*". Patterns are matched against ref names below refs/.
func ValidateRefPattern(pattern string) error {
	if pattern == "" {
		return New(ErrCodeInvalidPattern, "ref pattern cannot be empty")
	}
	if strings.HasPrefix(pattern, "/") {
		return New(ErrCodeInvalidPattern, "ref pattern must be relative to refs/: %q", pattern)
	}
	if strings.Contains(pattern, "..") {
		return New(ErrCodeInvalidPattern, "ref pattern cannot contain '..': %q", pattern)
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return Wrap(ErrCodeInvalidPattern, err, "malformed ref pattern %q", pattern)
	}
	return nil
}
