package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"video-insights/internal/models"
	"video-insights/shared/config"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestSender(captured *[]capturedMail, err error) *Sender {
	s := NewSender(&config.EmailConfig{
		SMTPServer: "smtp.test.com",
		SMTPPort:   587,
		Username:   "bot@test.com",
		Password:   "secret",
		ToEmail:    "me@test.com",
	})
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*captured = append(*captured, capturedMail{addr: addr, from: from, to: to, msg: string(msg)})
		return err
	}
	return s
}

func testDigest() *models.DigestReport {
	return &models.DigestReport{
		Date:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Queries: []string{"golang", "sleep research"},
		Found:   4,
		Skipped: 1,
		Failed:  1,
		Notes: []*models.NoteRecord{{
			ID:  "page-1",
			URL: "https://www.notion.so/page-1",
			Video: &models.Video{
				ID:           "dQw4w9WgXcQ",
				Title:        "Go <Generics>",
				ChannelTitle: "Gopher TV",
				URL:          "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			},
		}},
	}
}

func TestSendDigest(t *testing.T) {
	var captured []capturedMail
	s := newTestSender(&captured, nil)

	if err := s.SendDigest(testDigest()); err != nil {
		t.Fatalf("SendDigest() error = %v", err)
	}
	if len(captured) != 1 {
		t.Fatalf("sent %d mails, want 1", len(captured))
	}

	mail := captured[0]
	if mail.addr != "smtp.test.com:587" {
		t.Errorf("addr = %s", mail.addr)
	}
	if mail.from != "bot@test.com" {
		t.Errorf("from = %s, want username fallback", mail.from)
	}
	for _, want := range []string{
		"Subject: Video Insights Digest - 1 New Notes (Mar 1, 2025)",
		"https://www.notion.so/page-1",
		"Go &lt;Generics&gt;",
		"golang, sleep research",
		"Found 4 videos, skipped 1 already processed, 1 failed.",
	} {
		if !strings.Contains(mail.msg, want) {
			t.Errorf("mail missing %q", want)
		}
	}
}

func TestSendDigestSkipsEmptyRun(t *testing.T) {
	var captured []capturedMail
	s := newTestSender(&captured, nil)

	report := testDigest()
	report.Notes = nil
	if err := s.SendDigest(report); err != nil {
		t.Fatalf("SendDigest() error = %v", err)
	}
	if len(captured) != 0 {
		t.Errorf("sent %d mails for an empty run", len(captured))
	}

	if err := s.SendDigest(nil); err == nil {
		t.Error("expected error for nil report")
	}
}

func TestSendDigestPropagatesSMTPError(t *testing.T) {
	var captured []capturedMail
	s := newTestSender(&captured, errors.New("connection refused"))

	if err := s.SendDigest(testDigest()); err == nil {
		t.Error("expected SMTP error")
	}
}
