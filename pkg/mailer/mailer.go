// Package mailer delivers transactional email through the SendGrid v3 API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rbhardware/shop-backend/pkg/config"
	"github.com/rbhardware/shop-backend/pkg/logger"
)

const (
	defaultBaseURL = "https://api.sendgrid.com"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 4000
)

// Mailer sends a single message. Delivery is synchronous and never retried.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a plain transactional email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type sendgridMailer struct {
	apiKey     string
	baseURL    string
	fromEmail  string
	fromName   string
	httpClient *http.Client
}

// New returns a SendGrid-backed mailer, or a log-only mailer when no API key
// is configured so local environments can still exercise OTP flows.
func New(cfg config.SendgridConfig, logg *logger.Logger) (Mailer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		if logg == nil {
			return nil, fmt.Errorf("logger required for log mailer")
		}
		return &logMailer{logg: logg}, nil
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, fmt.Errorf("sendgrid from email is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &sendgridMailer{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		fromEmail:  strings.TrimSpace(cfg.DefaultFrom),
		fromName:   strings.TrimSpace(cfg.FromName),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

// HTTPError is returned when SendGrid answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = "<empty body>"
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, body)
}

func (m *sendgridMailer) Send(ctx context.Context, msg Message) error {
	wire, err := m.buildRequest(msg)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(wire); err != nil {
		return fmt.Errorf("sendgrid: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v3/mail/send", &buf)
	if err != nil {
		return fmt.Errorf("sendgrid: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return nil
}

func (m *sendgridMailer) buildRequest(msg Message) (mailSendRequest, error) {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return mailSendRequest{}, fmt.Errorf("sendgrid: recipient required")
	}
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		return mailSendRequest{}, fmt.Errorf("sendgrid: subject required")
	}

	contents := []mailContent{}
	if t := strings.TrimSpace(msg.Text); t != "" {
		contents = append(contents, mailContent{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(msg.HTML); h != "" {
		contents = append(contents, mailContent{Type: "text/html", Value: h})
	}
	if len(contents) == 0 {
		return mailSendRequest{}, fmt.Errorf("sendgrid: text or html content required")
	}

	return mailSendRequest{
		Personalizations: []personalization{{To: []emailAddress{{Email: to}}}},
		From:             emailAddress{Email: m.fromEmail, Name: m.fromName},
		Subject:          subject,
		Content:          contents,
	}, nil
}

type logMailer struct {
	logg *logger.Logger
}

func (l *logMailer) Send(ctx context.Context, msg Message) error {
	ctx = l.logg.WithFields(ctx, map[string]any{
		"mail_to":      msg.To,
		"mail_subject": msg.Subject,
	})
	l.logg.Warn(ctx, "mailer.disabled: email not delivered")
	return nil
}
