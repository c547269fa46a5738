package tool

import (
	"sort"
	"strings"
)

// Link is one entry of the static link registry.
type Link struct {
	URL   string
	Label string
}

// Human-readable labels used in executor status messages.
var linkLabels = map[string]string{
	"linkedin": "LinkedIn",
	"github":   "GitHub",
	"resume":   "resume",
	"home":     "website home",
	"calendly": "Calendly",
}

// Registry is the static mapping from symbolic link targets to URLs. Entries
// with an empty URL are declared but unconfigured; the executor detects that
// and reports it instead of opening an empty link.
type Registry struct {
	links map[string]Link
}

func NewRegistry(urls map[string]string) *Registry {
	links := make(map[string]Link, len(urls))
	for target, url := range urls {
		target = strings.ToLower(target)
		label, ok := linkLabels[target]
		if !ok {
			label = target
		}
		links[target] = Link{URL: url, Label: label}
	}
	return &Registry{links: links}
}

// Get returns the link for a target.
func (r *Registry) Get(target string) (Link, bool) {
	link, ok := r.links[strings.ToLower(target)]
	return link, ok
}

// Targets returns the declared target names in sorted order, for use as the
// enum constraint in the tool schema.
func (r *Registry) Targets() []string {
	targets := make([]string, 0, len(r.links))
	for target := range r.links {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}
