package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user supplied HTML and text
type Sanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

// NewSanitizer creates a sanitizer. Rich content keeps user-generated-content markup,
// plain text loses every tag.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &Sanitizer{
		rich:  p,
		plain: bluemonday.StrictPolicy(),
	}
}

// SanitizeHTML sanitizes article and blog bodies
func (s *Sanitizer) SanitizeHTML(content string) string {
	return strings.TrimSpace(s.rich.Sanitize(content))
}

// StripTags removes all markup from short text such as comments and contact messages
func (s *Sanitizer) StripTags(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(text)))
}
