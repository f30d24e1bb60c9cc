// Package email sends rendered reports through the SendGrid v3 API.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/MaxMonteil/kathana/internal/config"
)

// client is the part of *sendgrid.Client the sender needs.
type client interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Status is SendGrid's answer to a send request.
type Status struct {
	StatusCode int
	Body       string
	Headers    map[string][]string
}

// Accepted reports whether SendGrid queued the message.
func (s *Status) Accepted() bool {
	return s != nil && s.StatusCode >= 200 && s.StatusCode < 300
}

type Sender struct {
	client client
	from   string
	to     []string
	cc     []string
	logger *slog.Logger
}

func NewSender(cfg config.EmailConfig, logger *slog.Logger) *Sender {
	return newSender(sendgrid.NewSendClient(cfg.APIKey), cfg, logger)
}

func newSender(c client, cfg config.EmailConfig, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		client: c,
		from:   cfg.From,
		to:     cfg.To,
		cc:     cfg.CC,
		logger: logger,
	}
}

// Message builds the SendGrid payload: one personalization carrying every
// recipient and CC, and a single HTML body.
func (s *Sender) Message(subject, html string) (*mail.SGMailV3, error) {
	if s.from == "" {
		return nil, errors.New("email sender is empty")
	}
	if len(s.to) == 0 {
		return nil, errors.New("no email recipients")
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", s.from))
	m.Subject = subject

	p := mail.NewPersonalization()
	for _, addr := range s.to {
		p.AddTos(mail.NewEmail("", addr))
	}
	for _, addr := range s.cc {
		if contains(s.to, addr) {
			continue
		}
		p.AddCCs(mail.NewEmail("", addr))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", html))

	return m, nil
}

func (s *Sender) Send(ctx context.Context, subject, html string) (*Status, error) {
	m, err := s.Message(subject, html)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sending report", "to", s.to, "cc", len(s.cc), "subject", subject)
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: %w", err)
	}

	status := &Status{
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Headers:    resp.Headers,
	}
	s.logger.Debug("sendgrid response", "status", status.StatusCode, "body", status.Body)
	return status, nil
}

// SendGrid rejects a personalization that lists the same address twice.
func contains(list []string, addr string) bool {
	for _, v := range list {
		if v == addr {
			return true
		}
	}
	return false
}
