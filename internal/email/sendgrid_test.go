package email

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/MaxMonteil/kathana/internal/config"
)

type fakeClient struct {
	sent *mail.SGMailV3
	resp *rest.Response
	err  error
}

func (f *fakeClient) SendWithContext(ctx context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = m
	return f.resp, f.err
}

func testConfig() config.EmailConfig {
	return config.EmailConfig{
		From: "owner@example.com",
		To:   []string{"lead@example.com"},
		CC:   []string{"a@example.com", "lead@example.com", "b@example.com"},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestMessage(t *testing.T) {
	s := newSender(&fakeClient{}, testConfig(), quietLogger())

	m, err := s.Message("Web report from 2020-03-02", "<h1>Hi</h1>")
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}

	if m.From.Address != "owner@example.com" || m.Subject != "Web report from 2020-03-02" {
		t.Errorf("from/subject = %q/%q", m.From.Address, m.Subject)
	}
	if len(m.Personalizations) != 1 {
		t.Fatalf("got %d personalizations, want 1", len(m.Personalizations))
	}
	p := m.Personalizations[0]
	if len(p.To) != 1 || p.To[0].Address != "lead@example.com" {
		t.Errorf("to = %+v", p.To)
	}
	if len(p.CC) != 2 {
		t.Errorf("cc should skip addresses already in To, got %d entries", len(p.CC))
	}
	if len(m.Content) != 1 || m.Content[0].Type != "text/html" || m.Content[0].Value != "<h1>Hi</h1>" {
		t.Errorf("content = %+v", m.Content)
	}
}

func TestMessageRequiresAddresses(t *testing.T) {
	cfg := testConfig()
	cfg.To = nil
	if _, err := newSender(&fakeClient{}, cfg, quietLogger()).Message("s", "b"); err == nil {
		t.Error("expected an error without recipients")
	}

	cfg = testConfig()
	cfg.From = ""
	if _, err := newSender(&fakeClient{}, cfg, quietLogger()).Message("s", "b"); err == nil {
		t.Error("expected an error without a sender")
	}
}

func TestSend(t *testing.T) {
	fc := &fakeClient{resp: &rest.Response{StatusCode: 202, Body: "", Headers: map[string][]string{"X-Message-Id": {"abc"}}}}
	s := newSender(fc, testConfig(), quietLogger())

	status, err := s.Send(context.Background(), "subject", "<p>body</p>")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !status.Accepted() || status.Headers["X-Message-Id"][0] != "abc" {
		t.Errorf("status = %+v", status)
	}
	if fc.sent == nil {
		t.Fatal("nothing was handed to the client")
	}
}

func TestSendError(t *testing.T) {
	boom := errors.New("connection refused")
	s := newSender(&fakeClient{err: boom}, testConfig(), quietLogger())

	if _, err := s.Send(context.Background(), "subject", "body"); !errors.Is(err, boom) {
		t.Fatalf("Send() error = %v, want wrapped %v", err, boom)
	}
}

func TestStatusAccepted(t *testing.T) {
	var nilStatus *Status
	if nilStatus.Accepted() {
		t.Error("nil status should not be accepted")
	}
	if (&Status{StatusCode: 401}).Accepted() {
		t.Error("401 should not be accepted")
	}
}
