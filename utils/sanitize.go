package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	bodyPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps the safe subset of HTML in user-written bodies: posts,
// comments, recipes and descriptions.
func Sanitize(input string) string {
	return bodyPolicy.Sanitize(input)
}

// PlainText strips all markup from single-line fields such as titles and
// names. Entities are decoded again so "Fish & Chips" is stored as typed
// and slugs are not built from "&amp;".
func PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(input)))
}
