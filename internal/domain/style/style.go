package style

import (
	"fmt"
	"strings"
)

// Style is the response verbosity.
type Style string

// Verbosity styles, in increasing order of detail.
const (
	Short  Style = "SHORT"
	Medium Style = "MEDIUM"
	Long   Style = "LONG"
	Full   Style = "FULL"
)

// Default is used when the caller does not pick a style.
const Default = Medium

// IsValid checks if the style is one of the supported values.
func (s Style) IsValid() bool {
	switch s {
	case Short, Medium, Long, Full:
		return true
	}
	return false
}

// Parse converts a case-insensitive name into a Style. Empty input yields Default.
func Parse(raw string) (Style, error) {
	if raw == "" {
		return Default, nil
	}
	s := Style(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown style %q (want SHORT, MEDIUM, LONG or FULL)", raw)
	}
	return s, nil
}
