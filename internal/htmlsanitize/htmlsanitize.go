// Package htmlsanitize cleans rendered page HTML and user-submitted comment
// text with bluemonday policies.
package htmlsanitize

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	contentPolicy *bluemonday.Policy
	strictPolicy  *bluemonday.Policy
	policyOnce    sync.Once
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		contentPolicy = bluemonday.UGCPolicy()
		contentPolicy.AllowElements("figure", "figcaption", "details", "summary", "u", "s", "mark", "hr")
		contentPolicy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
		contentPolicy.AllowDataAttributes()
		contentPolicy.AllowAttrs("loading").Matching(bluemonday.SpaceSeparatedTokens).OnElements("img")
		contentPolicy.AllowAttrs("role").Matching(bluemonday.SpaceSeparatedTokens).OnElements("aside")
		contentPolicy.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
		contentPolicy.AllowAttrs("rel").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")

		strictPolicy = bluemonday.StrictPolicy()
	})
	return contentPolicy, strictPolicy
}

// Sanitize cleans rendered page HTML, keeping the structural and formatting
// elements the block renderer emits.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	p, _ := policies()
	return p.Sanitize(s)
}

// StripTags removes all markup and returns plain text. Entities are decoded
// once, so the result is text to be escaped by whoever displays it.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	_, p := policies()
	return strings.TrimSpace(html.UnescapeString(p.Sanitize(s)))
}
