package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ontriq-site/internal/infra/queue"
)

//go:embed templates/*.html
var templateFS embed.FS

var inquiryTemplate = template.Must(template.ParseFS(templateFS, "templates/new_inquiry.html"))

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from string, to []string, dashboardURL string) *EmailSender {
	return &EmailSender{
		Host:         host,
		Port:         port,
		User:         user,
		Password:     password,
		From:         from,
		To:           to,
		DashboardURL: dashboardURL,
		dialer:       gomail.NewDialer(host, port, user, password),
	}
}

// WithDialer swaps the SMTP dialer, mostly for tests.
func (s *EmailSender) WithDialer(d Dialer) *EmailSender {
	s.dialer = d
	return s
}

func (s *EmailSender) NotifyInquiry(_ context.Context, p queue.InquiryCreatedPayload) error {
	if len(s.To) == 0 {
		return errors.New("no notification recipients configured")
	}

	msg, err := s.BuildInquiryMessage(p)
	if err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send smtp: %w", err)
	}
	return nil
}

func (s *EmailSender) BuildInquiryMessage(p queue.InquiryCreatedPayload) (*gomail.Message, error) {
	data := InquiryEmailData{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		Phone:        p.Phone,
		SourceURL:    p.SourceURL,
		Message:      p.Message,
		ReceivedAt:   p.CreatedAt.Format(time.RFC1123),
		DashboardURL: s.DashboardURL,
	}

	var body bytes.Buffer
	if err := inquiryTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render inquiry template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To...)
	m.SetHeader("Reply-To", p.Email)
	m.SetHeader("Subject", fmt.Sprintf("New inquiry: %s %s", p.FirstName, p.LastName))
	m.SetBody("text/html", body.String())
	return m, nil
}
