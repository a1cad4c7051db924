// Package sanitize normalizes free-text input before it is persisted or
// optimistically rendered. Every function is total: bad input is clamped or
// stripped, never rejected with an error.
package sanitize

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxItemContentLength bounds retro item text, in runes.
	MaxItemContentLength = 500
	// MaxUsernameLength bounds display names, in runes.
	MaxUsernameLength = 50
)

// strict drops all HTML elements and attributes, leaving text content only.
var strict = bluemonday.StrictPolicy()

// ItemContent cleans item text: markup stripped, control characters removed
// (newlines survive), trimmed, and clamped to MaxItemContentLength.
func ItemContent(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	s = stripControl(s, true)
	s = clampRunes(s, MaxItemContentLength)
	return strings.TrimSpace(s)
}

// Username cleans a display name: markup stripped, whitespace runs collapsed
// to single spaces, clamped to MaxUsernameLength.
func Username(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	// Fields first: newlines and tabs collapse into the joining spaces
	// instead of being dropped and gluing words together.
	s = strings.Join(strings.Fields(s), " ")
	s = stripControl(s, false)
	return strings.TrimSpace(clampRunes(s, MaxUsernameLength))
}

// Validation is the result of a content check. Reason is set only when the
// content is not acceptable.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// CheckItemText distinguishes empty-after-trim input from acceptable content
// so callers can block submission without handling errors.
func CheckItemText(s string) Validation {
	if strings.TrimSpace(s) == "" {
		return Validation{Reason: "item text is empty"}
	}
	return Validation{Valid: true}
}

func stripControl(s string, keepNewlines bool) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' && keepNewlines:
			return r
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

func clampRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
