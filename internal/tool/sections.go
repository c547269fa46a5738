package tool

import "strings"

// Canonical page sections the assistant can scroll to, in page order.
var sections = []string{"top", "about", "experience", "projects", "connect"}

// Aliases accepted from model output, mapped to canonical section ids.
var sectionAliases = map[string]string{
	"top":        "top",
	"home":       "top",
	"about":      "about",
	"experience": "experience",
	"projects":   "projects",
	"connect":    "connect",
	"contact":    "connect",
}

// NormalizeSection resolves a requested section name or alias to its
// canonical id. Returns "" when the name is unknown.
func NormalizeSection(name string) string {
	return sectionAliases[strings.ToLower(strings.TrimSpace(name))]
}

// SectionNames returns the canonical section ids, for use as the enum
// constraint in the tool schema.
func SectionNames() []string {
	out := make([]string, len(sections))
	copy(out, sections)
	return out
}
