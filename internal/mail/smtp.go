package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/config"
)

// SMTPSender delivers through a plain SMTP relay. Port 465 (or Secure: true)
// uses implicit TLS; anything else relies on STARTTLS during the session.
type SMTPSender struct {
	Host      string
	Port      int
	User      string
	Pass      string
	FromEmail string
	Receiver  string
	Secure    bool
}

func NewSMTPSender(cfg config.SMTPConfig, receiver string) *SMTPSender {
	from := cfg.FromEmail
	if from == "" {
		from = cfg.User
	}
	if receiver == "" {
		receiver = cfg.User
	}
	return &SMTPSender{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Pass:      cfg.Pass,
		FromEmail: from,
		Receiver:  receiver,
		Secure:    cfg.Secure || cfg.Port == 465,
	}
}

// Configured reports whether every required SMTP setting is present.
func (s *SMTPSender) Configured() bool {
	return s.Host != "" && s.User != "" && s.Pass != "" && s.Receiver != "" && s.Port > 0
}

func (s *SMTPSender) Send(ctx context.Context, payload Payload) error {
	if !s.Configured() {
		return &ConfigError{Msg: "Mail service is not configured. Set SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS, and CONTACT_RECEIVER_EMAIL."}
	}

	if err := ctx.Err(); err != nil {
		return &UpstreamError{Status: 500, Msg: "Failed to send email."}
	}

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
	msg := s.buildMessage(payload)

	var err error
	if s.Secure {
		err = s.sendImplicitTLS(addr, auth, msg)
	} else {
		err = smtp.SendMail(addr, auth, s.FromEmail, []string{s.Receiver}, msg)
	}
	if err != nil {
		return &UpstreamError{Status: 500, Msg: "Failed to send email."}
	}
	return nil
}

func (s *SMTPSender) sendImplicitTLS(addr string, auth smtp.Auth, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.Host})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(s.FromEmail); err != nil {
		return err
	}
	if err := client.Rcpt(s.Receiver); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

const mimeBoundary = "portfolio-contact-boundary"

// buildMessage renders a multipart/alternative MIME message with the same
// text and HTML bodies the Resend path sends.
func (s *SMTPSender) buildMessage(payload Payload) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", s.Receiver)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", payload.Email)
	fmt.Fprintf(&b, "Subject: %s\r\n", payload.normalizedSubject())
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", mimeBoundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(payload.textBody())
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(payload.htmlBody())
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String())
}
