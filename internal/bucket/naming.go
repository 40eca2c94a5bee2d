package bucket

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	maxNameLength  = 63
	minNameLength  = 3
	fallbackPrefix = "user"
)

var (
	disallowedChars = regexp.MustCompile(`[^a-z0-9.-]`)
	separatorRuns   = regexp.MustCompile(`[.-]{2,}`)
	validName       = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)
)

// SanitizeName lowercases s, maps anything outside [a-z0-9.-] to '-',
// collapses separator runs and trims separators from both ends. The
// result is truncated to max characters.
func SanitizeName(s string, max int) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = disallowedChars.ReplaceAllString(s, "-")
	s = separatorRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")
	if max > 0 && len(s) > max {
		s = strings.Trim(s[:max], "-.")
	}
	return s
}

// Name derives the tenant bucket for a user as {sanitized username}-{id}.
// An username that sanitizes to nothing falls back to "user".
func Name(username string, userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("%w: user id %d", ErrInvalidName, userID)
	}

	suffix := "-" + strconv.FormatInt(userID, 10)
	prefix := SanitizeName(username, maxNameLength-len(suffix))
	if prefix == "" {
		prefix = fallbackPrefix
	}

	name := prefix + suffix
	if err := Validate(name); err != nil {
		return "", err
	}
	return name, nil
}

// Validate checks name against the bucket naming rules.
func Validate(name string) error {
	if len(name) < minNameLength || len(name) > maxNameLength {
		return fmt.Errorf("%w: %q must be %d-%d characters", ErrInvalidName, name, minNameLength, maxNameLength)
	}
	if !validName.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
