package tool

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"time"
)

// ScheduleMode selects how schedule_meeting is fulfilled.
type ScheduleMode string

const (
	// ScheduleCalendar builds a Google Calendar quick-add draft from the
	// call's date/time/duration arguments.
	ScheduleCalendar ScheduleMode = "calendar"
	// ScheduleCalendly opens a pre-configured Calendly page with name/email
	// prefilled as query parameters.
	ScheduleCalendly ScheduleMode = "calendly"
)

// ContactPayload is the message handed to the contact-mail collaborator.
type ContactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Capabilities abstracts the real-world side effects so the executor's
// decision logic is testable without a browser. OpenExternal must open the URL
// in a new, non-opener, non-referrer browsing context. Navigate scrolls the
// host page to a canonical section id and reports whether the section exists
// on the current page.
type Capabilities interface {
	OpenExternal(rawURL string)
	Navigate(section string) (ok bool)
	SendContact(ctx context.Context, payload ContactPayload) (ok bool, status string)
}

// Executor performs the side effect for an approved tool call. Execute never
// fails with an error: every failure path resolves to a human-readable status
// string appended to the transcript.
type Executor struct {
	Links        *Registry
	Caps         Capabilities
	ScheduleMode ScheduleMode
	CalendlyURL  string
	SiteName     string // used in default meeting details
}

func (e *Executor) Execute(ctx context.Context, call Call) string {
	switch call.Name {
	case NameOpenLink:
		return e.openLink(call)
	case NameRedirectSection:
		return e.redirectSection(call)
	case NameScheduleMeeting:
		return e.scheduleMeeting(call)
	case NameSendMessage:
		return e.sendMessage(ctx, call)
	default:
		return fmt.Sprintf("Tool %s is not supported by the client.", call.Name)
	}
}

func (e *Executor) openLink(call Call) string {
	target := call.StringArg("target")
	link, ok := e.Links.Get(target)
	if target == "" || !ok {
		return "Could not open that link target."
	}
	if link.URL == "" {
		return fmt.Sprintf("The %s link is not configured yet.", link.Label)
	}
	e.Caps.OpenExternal(link.URL)
	return fmt.Sprintf("Opened %s.", link.Label)
}

func (e *Executor) redirectSection(call Call) string {
	section := NormalizeSection(call.StringArg("section"))
	if section == "" {
		return "Could not find that section."
	}
	if !e.Caps.Navigate(section) {
		return fmt.Sprintf("Section %s is not available on this page.", section)
	}
	return fmt.Sprintf("Moved to the %s section.", section)
}

func (e *Executor) scheduleMeeting(call Call) string {
	if e.ScheduleMode == ScheduleCalendly {
		return e.scheduleCalendly(call)
	}
	return e.scheduleCalendar(call)
}

func (e *Executor) scheduleCalendly(call Call) string {
	if e.CalendlyURL == "" {
		return "Calendly is not configured. Set the scheduling link to enable booking."
	}

	parsed, err := url.Parse(e.CalendlyURL)
	if err != nil || parsed.Host == "" {
		return "Calendly URL is invalid. Check the configured scheduling link."
	}

	query := parsed.Query()
	if name := call.StringArg("name"); name != "" {
		query.Set("name", name)
	}
	if email := call.StringArg("email"); email != "" {
		query.Set("email", email)
	}
	parsed.RawQuery = query.Encode()

	e.Caps.OpenExternal(parsed.String())
	return "Opened Calendly scheduling page."
}

var timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

func (e *Executor) scheduleCalendar(call Call) string {
	title := call.StringArg("title")
	if title == "" {
		title = "Portfolio Meeting"
	}
	details := call.StringArg("details")
	if details == "" {
		details = fmt.Sprintf("Meeting requested through %s's portfolio assistant.", e.SiteName)
	}

	start := buildStartTime(call.StringArg("date"), call.StringArg("time"))
	duration := clampDuration(call)

	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", title)
	params.Set("details", details)
	if start != nil {
		end := start.Add(duration)
		params.Set("dates", formatCalendarStamp(*start)+"/"+formatCalendarStamp(end))
	}
	if tz := call.StringArg("timezone"); tz != "" {
		params.Set("ctz", tz)
	}

	e.Caps.OpenExternal("https://calendar.google.com/calendar/render?" + params.Encode())

	if start != nil {
		return fmt.Sprintf("Opened a calendar draft for %s.", start.Format("Jan 2, 2006 15:04"))
	}
	return "Opened a calendar draft. Add date and time to finalize scheduling."
}

// buildStartTime combines date and time arguments into a start instant.
// A missing or malformed time falls back to 10:00; a missing or malformed
// date yields nil and the draft is opened without a dates range.
func buildStartTime(date, timeOfDay string) *time.Time {
	if date == "" {
		return nil
	}
	if !timePattern.MatchString(timeOfDay) {
		timeOfDay = "10:00"
	}
	parsed, err := time.Parse("2006-01-02T15:04", date+"T"+timeOfDay)
	if err != nil {
		return nil
	}
	return &parsed
}

// clampDuration applies the [15,180] minute bounds with a 30 minute default.
func clampDuration(call Call) time.Duration {
	minutes, ok := call.NumberArg("durationMinutes")
	if !ok || minutes == 0 {
		return 30 * time.Minute
	}
	rounded := math.Round(minutes)
	if rounded < 15 {
		rounded = 15
	}
	if rounded > 180 {
		rounded = 180
	}
	return time.Duration(rounded) * time.Minute
}

func formatCalendarStamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func (e *Executor) sendMessage(ctx context.Context, call Call) string {
	payload := ContactPayload{
		Name:    call.StringArg("name"),
		Email:   call.StringArg("email"),
		Subject: call.StringArg("subject"),
		Message: call.StringArg("message"),
	}

	if payload.Email == "" || payload.Message == "" {
		return "Cannot send message yet. Please provide both your email and message."
	}

	_, status := e.Caps.SendContact(ctx, payload)
	return status
}
