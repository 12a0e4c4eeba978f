package ingest

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanFragmentText strips any markup that leaked into a text blob and
// normalizes whitespace. Listing captions occasionally contain stray tags
// from hand-edited page revisions.
func cleanFragmentText(s string) string {
	// Sanitize entity-escapes whatever text survives, undo that.
	return normalizeSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
