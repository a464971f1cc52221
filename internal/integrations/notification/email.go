package notification

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGridSender отправляет письма через SendGrid API
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	log       Logger
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Host переопределяет адрес API, пусто = api.sendgrid.com
	Host string
}

// NewSendGridSender возвращает nil, если ключ API не задан
func NewSendGridSender(cfg SendGridConfig, log Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.FromName == "" {
		cfg.FromName = "Appointments"
	}

	client := sendgrid.NewSendClient(cfg.APIKey)
	if cfg.Host != "" {
		request := sendgrid.GetRequest(cfg.APIKey, sendGridEndpoint, cfg.Host)
		request.Method = "POST"
		client = &sendgrid.Client{Request: request}
	}

	return &SendGridSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		log:       log,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("%w: sendgrid", ErrNotConfigured)
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", ErrSendFailed, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("%w: sendgrid returned status %d: %s", ErrSendFailed, response.StatusCode, response.Body)
	}

	s.log.Info("Email sent via sendgrid, subject=%q status=%d", msg.Subject, response.StatusCode)
	return nil
}

// StubEmailSender пишет письмо в лог вместо отправки
type StubEmailSender struct {
	log Logger
}

func NewStubEmailSender(log Logger) *StubEmailSender {
	return &StubEmailSender{log: log}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.log.Info("Stub email sender: would send %q", msg.Subject)
	return nil
}
