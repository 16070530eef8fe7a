// Package sanitize cleans user-supplied text before it is stored. Display
// names end up in every page header, so markup is stripped with bluemonday's
// strict policy rather than escaped at each render site.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the shared strict policy; it removes every element and
// attribute and keeps only text.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Name strips markup from a display name and collapses runs of whitespace.
// bluemonday escapes the surviving text for HTML; the stored value is plain
// text, so entities are decoded again.
func Name(s string) string {
	cleaned := html.UnescapeString(getPolicy().Sanitize(s))
	return strings.Join(strings.Fields(cleaned), " ")
}

// Email normalizes a login handle: trimmed and lower-cased.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
