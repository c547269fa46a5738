// Package mail implements the contact-mail collaborator: payload validation
// and outbound delivery through Resend or plain SMTP.
package mail

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
)

const maxMessageLength = 5000

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	emailExtractor = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[a-zA-Z]{2,}`)
)

// IsValidEmail checks the basic local@domain.tld shape.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ExtractEmail pulls the first email-shaped token out of free text, so users
// can answer "my email is dana@x.com" instead of typing the bare address.
func ExtractEmail(text string) string {
	return emailExtractor.FindString(text)
}

// Payload is one contact message to deliver.
type Payload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Normalize trims every field.
func (p *Payload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Subject = strings.TrimSpace(p.Subject)
	p.Message = strings.TrimSpace(p.Message)
}

// ValidationError is a rejected payload; surfaced immediately, no retry.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validate rejects payloads the collaborator must not attempt to deliver.
func (p Payload) Validate() error {
	if p.Email == "" || p.Message == "" {
		return &ValidationError{Msg: "Email and message are required."}
	}
	if !IsValidEmail(p.Email) {
		return &ValidationError{Msg: "Please provide a valid email address."}
	}
	if len(p.Message) > maxMessageLength {
		return &ValidationError{Msg: "Message is too long."}
	}
	return nil
}

// ConfigError means the mail transport is not configured; fatal, the caller
// sees an actionable setup message rather than a retry.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// UpstreamError is a delivery failure from the transport.
type UpstreamError struct {
	Status int
	Msg    string
}

func (e *UpstreamError) Error() string { return e.Msg }

// Sender delivers a validated payload.
type Sender interface {
	Send(ctx context.Context, payload Payload) error
}

// Service validates, renders, and delivers contact messages. SuccessName is
// the persona used in the confirmation string ("Kalyan", "Vueverse team").
type Service struct {
	Sender      Sender
	SuccessName string
}

// Deliver normalizes and validates the payload, then hands it to the sender.
// On success it returns the user-facing confirmation message.
func (s *Service) Deliver(ctx context.Context, payload Payload) (string, error) {
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		return "", err
	}
	if s.Sender == nil {
		return "", &ConfigError{Msg: "Mail service is not configured. Set RESEND_API_KEY or the SMTP_* variables."}
	}
	if err := s.Sender.Send(ctx, payload); err != nil {
		return "", err
	}
	return fmt.Sprintf("Message sent successfully. %s will get it by email.", s.SuccessName), nil
}

func (p Payload) normalizedSubject() string {
	if p.Subject != "" {
		return p.Subject
	}
	from := p.Name
	if from == "" {
		from = p.Email
	}
	return fmt.Sprintf("Portfolio chatbot message from %s", from)
}

func (p Payload) normalizedName() string {
	if p.Name == "" {
		return "Not provided"
	}
	return p.Name
}

func (p Payload) textBody() string {
	return strings.Join([]string{
		"New message from portfolio chatbot",
		"Name: " + p.normalizedName(),
		"Email: " + p.Email,
		"Subject: " + p.normalizedSubject(),
		"",
		"Message:",
		p.Message,
	}, "\n")
}

func (p Payload) htmlBody() string {
	escapedMessage := strings.ReplaceAll(html.EscapeString(p.Message), "\n", "<br />")
	return fmt.Sprintf(`<h2>New message from portfolio chatbot</h2>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Subject:</strong> %s</p>
<p><strong>Message:</strong></p>
<p>%s</p>`,
		html.EscapeString(p.normalizedName()),
		html.EscapeString(p.Email),
		html.EscapeString(p.normalizedSubject()),
		escapedMessage,
	)
}
