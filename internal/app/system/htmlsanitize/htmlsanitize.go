// Package htmlsanitize reduces user-authored post text to plain text before
// it is sent to the value generator.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every tag and attribute. bluemonday policies are safe for
// concurrent use once built.
var strict = bluemonday.StrictPolicy()

// PlainText strips markup from s, decodes entities and collapses whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// PlainTexts applies PlainText to each item and drops items that end up empty.
func PlainTexts(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if t := PlainText(it); t != "" {
			out = append(out, t)
		}
	}
	return out
}
