// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans user-supplied rich text before it is stored.
// Contribution notes, expense descriptions, and member contact info all pass
// through here; nothing user-entered reaches the database unsanitized.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ugc allows the basic formatting members paste into notes fields.
	ugc = bluemonday.UGCPolicy()

	// strict strips all markup, leaving plain text.
	strict = bluemonday.StrictPolicy()
)

// Sanitize removes unsafe HTML (scripts, event handlers, javascript: URLs)
// while keeping basic formatting.
func Sanitize(s string) string {
	return ugc.Sanitize(s)
}

// PlainText strips all markup and trims surrounding whitespace. Use for
// single-line fields like contact info.
func PlainText(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
