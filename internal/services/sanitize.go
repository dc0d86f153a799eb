package services

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/abrezinsky/irlsus/internal/errors"
)

const (
	MaxPlayerNameLength = 20
	MaxTaskNameLength   = 40
)

// textPolicy strips every tag; names are plain text
var textPolicy = bluemonday.StrictPolicy()

// cleanText removes markup and surrounding whitespace. The result is
// unescaped plain text; clients escape on display. Entity-encoded markup is
// decoded and stripped again until nothing changes, so encoding a tag does
// not smuggle it through.
func cleanText(s string) string {
	for i := 0; i < maxCleanPasses; i++ {
		next := html.UnescapeString(textPolicy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	return strings.TrimSpace(angleBrackets.Replace(s))
}

const maxCleanPasses = 4

var angleBrackets = strings.NewReplacer("<", "", ">", "")

func cleanName(field, s string, max int) (string, error) {
	s = cleanText(s)
	if s == "" {
		return "", errors.Validationf("%s is required", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", errors.Validationf("%s must be at most %d characters", field, max)
	}
	return s, nil
}

// SanitizePlayerName cleans and validates a player name
func SanitizePlayerName(s string) (string, error) {
	return cleanName("player name", s, MaxPlayerNameLength)
}

// SanitizeTaskName cleans and validates a task name
func SanitizeTaskName(s string) (string, error) {
	return cleanName("task name", s, MaxTaskNameLength)
}
