package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"

	"video-insights/internal/models"
	"video-insights/shared/config"
)

//go:embed digest_template.html
var digestTemplate string

var tmpl = template.Must(template.New("digest").Parse(digestTemplate))

// sendFunc matches smtp.SendMail so tests can capture outgoing mail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config *config.EmailConfig
	send   sendFunc
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// SendDigest mails the notes created by one watch run. Nothing is sent for an empty run.
func (s *Sender) SendDigest(report *models.DigestReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if len(report.Notes) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Video Insights Digest - %d New Notes (%s)",
		len(report.Notes), report.Date.Format("Jan 2, 2006"))

	body, err := renderDigest(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.sendHTML(subject, body)
}

func (s *Sender) sendHTML(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	from := s.config.FromEmail
	if from == "" {
		from = s.config.Username
	}

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, from, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return s.send(addr, auth, from, to, msg)
}

func renderDigest(report *models.DigestReport) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}
