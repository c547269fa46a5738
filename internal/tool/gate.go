package tool

import (
	"regexp"
	"strings"
)

// Models propose tool calls speculatively. The gate suppresses execution when
// the user's literal wording does not plausibly request the action, so a vague
// question never opens tabs or sends mail.
//
// send_message and schedule_meeting calls are always trusted: the system
// prompt already restricts when the model may emit them, and the contact and
// scheduling flows have their own confirmation steps. redirect_to_section is
// trusted as well; it only scrolls within the page. open_link requires
// either a generic open/navigate verb or a keyword matching the requested
// target.

var genericLinkIntent = regexp.MustCompile(`(open|show|visit|go to|link|share|where)`)

var targetKeywords = map[string]*regexp.Regexp{
	"linkedin": regexp.MustCompile(`(linkedin|linked in)`),
	"github":   regexp.MustCompile(`(github|git hub|repo|repositories|code)`),
	"resume":   regexp.MustCompile(`(resume|cv)`),
	"calendly": regexp.MustCompile(`(calendly|schedule|meeting|book)`),
}

// ShouldExecute decides whether a model-proposed tool call may run, given the
// literal text the user just typed. Pure and case-insensitive.
func ShouldExecute(utterance string, call Call) bool {
	text := strings.ToLower(utterance)

	if call.Name != NameOpenLink {
		return true
	}

	if genericLinkIntent.MatchString(text) {
		return true
	}

	target := strings.ToLower(call.StringArg("target"))
	if keywords, ok := targetKeywords[target]; ok {
		return keywords.MatchString(text)
	}

	return false
}
