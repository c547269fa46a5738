package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/config"
)

const sendTimeout = 10 * time.Second

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	APIKey     string
	FromEmail  string
	APIURL     string
	Receiver   string
	HTTPClient *http.Client
}

func NewResendSender(cfg config.ResendConfig, receiver string) *ResendSender {
	return &ResendSender{
		APIKey:     cfg.APIKey,
		FromEmail:  cfg.FromEmail,
		APIURL:     cfg.APIURL,
		Receiver:   receiver,
		HTTPClient: http.DefaultClient,
	}
}

// Configured reports whether every required Resend setting is present.
func (s *ResendSender) Configured() bool {
	return s.APIKey != "" && s.FromEmail != "" && s.Receiver != ""
}

func (s *ResendSender) Send(ctx context.Context, payload Payload) error {
	if !s.Configured() {
		return &ConfigError{Msg: "Resend is not configured. Set RESEND_API_KEY, RESEND_FROM_EMAIL, and CONTACT_RECEIVER_EMAIL."}
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"from":     s.FromEmail,
		"to":       []string{s.Receiver},
		"reply_to": payload.Email,
		"subject":  payload.normalizedSubject(),
		"text":     payload.textBody(),
		"html":     payload.htmlBody(),
	})
	if err != nil {
		return &UpstreamError{Status: http.StatusBadGateway, Msg: "Failed to reach Resend API."}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.APIURL, bytes.NewReader(body))
	if err != nil {
		return &UpstreamError{Status: http.StatusBadGateway, Msg: "Failed to reach Resend API."}
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return &UpstreamError{Status: http.StatusBadGateway, Msg: "Failed to reach Resend API."}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		msg := extractErrorMessage(respBody)
		if msg == "" {
			msg = "Resend failed to send email."
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		return &UpstreamError{Status: status, Msg: msg}
	}

	return nil
}

// SenderFromConfig picks the delivery transport: Resend when fully
// configured, else SMTP, else nil (the Service reports the setup error).
func SenderFromConfig(cfg config.MailConfig) Sender {
	if resend := NewResendSender(cfg.Resend, cfg.Receiver); resend.Configured() {
		return resend
	}
	if smtpSender := NewSMTPSender(cfg.SMTP, cfg.Receiver); smtpSender.Configured() {
		return smtpSender
	}
	return nil
}

// extractErrorMessage digs a human-readable message out of a Resend error
// body, which may carry it at the top level or nested under "error".
func extractErrorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(parsed.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(parsed.Error.Message)
}
