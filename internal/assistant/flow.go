package assistant

import (
	"regexp"
	"strings"
)

// FlowState is the contact-collection step the session is currently in.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowAwaitingName
	FlowAwaitingEmail
	FlowAwaitingDescription
)

// ContactDraft is built incrementally across turns and consumed when the flow
// completes. Cancelling discards the partial draft.
type ContactDraft struct {
	Name        string
	Email       string
	Description string
}

// ContactFlow is the multi-turn collector that gathers name, email, and a
// requirement description without relying on the model.
type ContactFlow struct {
	state FlowState
	draft ContactDraft
}

func (f *ContactFlow) State() FlowState    { return f.state }
func (f *ContactFlow) Active() bool        { return f.state != FlowIdle }
func (f *ContactFlow) Draft() ContactDraft { return f.draft }

// Start resets the draft and moves to the name step.
func (f *ContactFlow) Start() {
	f.draft = ContactDraft{}
	f.state = FlowAwaitingName
}

// Reset aborts the flow and discards the partial draft.
func (f *ContactFlow) Reset() {
	f.draft = ContactDraft{}
	f.state = FlowIdle
}

// Escape-hatch and entry intents. These run against the user's literal
// wording; precedence when the flow is active is cancel > knowledge >
// schedule > step input, so users are never trapped in the form.
var (
	contactIntent  = regexp.MustCompile(`(hire|hiring|quote|proposal|contact|consult|consulting|project|build|work together|collaborat|pricing|send (a )?(mail|email|message)|email|mail)`)
	cancelIntent   = regexp.MustCompile(`(cancel|stop|skip|exit|not now|later|back|never mind)`)
	scheduleIntent = regexp.MustCompile(`(schedule|meeting|book|call|appointment|calendly)`)
	questionLead   = regexp.MustCompile(`^(what|who|how|why|when|where|tell me|explain|share|can you)`)
	knowledgeTopic = regexp.MustCompile(`(service|services|offer|offering|project|projects|experience|skills|stack|github|company|process|background)`)
)

// DetectContactIntent reports whether an idle-state utterance should start
// the contact flow.
func DetectContactIntent(utterance string) bool {
	return contactIntent.MatchString(strings.ToLower(utterance))
}

// DetectCancelIntent reports whether an utterance aborts the active flow.
func DetectCancelIntent(utterance string) bool {
	return cancelIntent.MatchString(strings.ToLower(utterance))
}

// DetectScheduleIntent reports whether an utterance short-circuits straight
// to scheduling.
func DetectScheduleIntent(utterance string) bool {
	return scheduleIntent.MatchString(strings.ToLower(utterance))
}

// DetectKnowledgeIntent reports whether an utterance is an informational
// question that should pause the flow and go to the model instead.
func DetectKnowledgeIntent(utterance string) bool {
	text := strings.ToLower(utterance)
	looksLikeQuestion := strings.Contains(text, "?") || questionLead.MatchString(text)
	return looksLikeQuestion && knowledgeTopic.MatchString(text)
}
