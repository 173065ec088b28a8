// Package htmlsanitize strips unsafe markup from user-supplied content.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps safe user-generated HTML (formatting, links) and removes
// scripts, event handlers, and javascript: URLs.
func Sanitize(s string) string {
	return ugcPolicy.Sanitize(s)
}

// SanitizeText strips all markup, leaving plain text. Use for values that
// are matched or displayed verbatim, like search terms.
func SanitizeText(s string) string {
	return strictPolicy.Sanitize(s)
}
