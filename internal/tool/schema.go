package tool

import (
	"encoding/json"
	"strings"
)

// Tool identifiers shared by the provider adapters and the executor.
const (
	NameOpenLink        = "open_link"
	NameRedirectSection = "redirect_to_section"
	NameScheduleMeeting = "schedule_meeting"
	NameSendMessage     = "send_message"
)

// ParamType is the provider-agnostic parameter type. Each adapter maps it
// into its own declaration dialect.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeNumber ParamType = "number"
)

// Param describes one argument of a tool.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Enum        []string
	Required    bool
}

// Spec is the provider-agnostic declaration of a tool. The specs below are
// declared once and rendered into each provider's wire dialect by the
// adapter, so the contracts can never drift apart.
type Spec struct {
	Name        string
	Description string
	Params      []Param
}

// Specs returns the declarations for the assistant tools.
func Specs(linkTargets []string) []Spec {
	return []Spec{
		{
			Name:        NameOpenLink,
			Description: "Open one of the known portfolio links.",
			Params: []Param{
				{
					Name:        "target",
					Type:        TypeString,
					Enum:        linkTargets,
					Description: "The named destination to open.",
					Required:    true,
				},
			},
		},
		{
			Name:        NameRedirectSection,
			Description: "Scroll the page to one of the named portfolio sections.",
			Params: []Param{
				{
					Name:        "section",
					Type:        TypeString,
					Enum:        SectionNames(),
					Description: "The section to move to.",
					Required:    true,
				},
			},
		},
		{
			Name:        NameScheduleMeeting,
			Description: "Open the scheduling link for booking a meeting.",
			Params: []Param{
				{Name: "title", Type: TypeString, Description: "Meeting title."},
				{Name: "date", Type: TypeString, Description: "Date in YYYY-MM-DD format."},
				{Name: "time", Type: TypeString, Description: "Start time in HH:mm 24-hour format."},
				{Name: "timezone", Type: TypeString, Description: "IANA timezone, for example Asia/Kolkata."},
				{Name: "durationMinutes", Type: TypeNumber, Description: "Duration in minutes. Defaults to 30."},
				{Name: "details", Type: TypeString, Description: "Additional context for the calendar invite."},
				{Name: "name", Type: TypeString, Description: "Attendee name."},
				{Name: "email", Type: TypeString, Description: "Attendee email."},
			},
		},
		{
			Name:        NameSendMessage,
			Description: "Prepare a contact message for the connect section.",
			Params: []Param{
				{Name: "name", Type: TypeString, Description: "Sender name."},
				{Name: "email", Type: TypeString, Description: "Sender email.", Required: true},
				{Name: "subject", Type: TypeString, Description: "Message subject."},
				{Name: "message", Type: TypeString, Description: "Message body.", Required: true},
			},
		},
	}
}

// Call is a structured tool invocation proposed by the model. Unrecognized
// names are preserved here and rejected at execution time.
type Call struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// StringArg returns the trimmed string value of an argument, or "" when the
// argument is missing or not a string.
func (c Call) StringArg(key string) string {
	v, ok := c.Args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// NumberArg returns the numeric value of an argument. JSON numbers decode as
// float64; json.Number is accepted as well for callers that decode with
// UseNumber.
func (c Call) NumberArg(key string) (float64, bool) {
	switch v := c.Args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
