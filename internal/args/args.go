// Package args splits free-form text into shell-style argument words.
package args

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// Split tokenizes text the way a POSIX shell would split words, honoring
// single quotes, double quotes and backslash escapes.
// Empty or whitespace-only text yields an empty slice, not an error.
func Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	return shellquote.Split(text)
}

// Join quotes words so that Split(Join(words)) returns words.
func Join(words []string) string {
	return shellquote.Join(words...)
}
