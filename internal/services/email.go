package services

import (
	"fmt"
	"html"
	"net/smtp"

	"github.com/collabdoor/collabdoor-api/internal/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const senderName = "CollabDoor"

// MailTransport delivers a single message. Unconfigured transports drop mail silently.
type MailTransport interface {
	IsConfigured() bool
	Send(to, subject, plain, htmlBody string) error
}

type SMTPTransport struct {
	cfg config.SMTPConfig
}

func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) IsConfigured() bool {
	return t.cfg.Host != "" && t.cfg.Username != "" && t.cfg.Password != "" && t.cfg.From != ""
}

func (t *SMTPTransport) Send(to, subject, _, htmlBody string) error {
	if !t.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", t.cfg.Host, t.cfg.Port)
	auth := smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		senderName, t.cfg.From, to, subject, htmlBody)

	return smtp.SendMail(addr, auth, t.cfg.From, []string{to}, []byte(msg))
}

type SendGridTransport struct {
	apiKey string
	from   string
}

func NewSendGridTransport(apiKey, from string) *SendGridTransport {
	return &SendGridTransport{apiKey: apiKey, from: from}
}

func (t *SendGridTransport) IsConfigured() bool {
	return t.apiKey != "" && t.from != ""
}

func (t *SendGridTransport) Send(to, subject, plain, htmlBody string) error {
	if !t.IsConfigured() {
		return nil
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(senderName, t.from),
		subject,
		mail.NewEmail("", to),
		plain,
		htmlBody,
	)

	resp, err := sendgrid.NewSendClient(t.apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// NewMailTransport prefers SendGrid when an API key is set and falls back to SMTP.
func NewMailTransport(cfg *config.Config) MailTransport {
	if cfg.SendGridAPIKey != "" {
		return NewSendGridTransport(cfg.SendGridAPIKey, cfg.SMTP.From)
	}
	return NewSMTPTransport(cfg.SMTP)
}

type EmailService struct {
	transport MailTransport
}

func NewEmailService(transport MailTransport) *EmailService {
	return &EmailService{transport: transport}
}

func (s *EmailService) IsConfigured() bool {
	return s.transport != nil && s.transport.IsConfigured()
}

func (s *EmailService) SendPartnershipStatus(to, projectTitle, status, link string) error {
	if !s.IsConfigured() {
		return nil
	}
	subject := fmt.Sprintf("Your application to %s was %s", projectTitle, status)
	plain := fmt.Sprintf("Your application to %s was %s.\n\n%s", projectTitle, status, link)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Application %s</h2>
			<p>Your application to <strong>%s</strong> was %s.</p>
			<p><a href="%s">View the project</a></p>
		</body>
		</html>
	`, html.EscapeString(status), html.EscapeString(projectTitle), html.EscapeString(status), link)

	return s.transport.Send(to, subject, plain, body)
}

func (s *EmailService) SendJoinRequestDecision(to, organizationName string, approved bool, link string) error {
	if !s.IsConfigured() {
		return nil
	}
	outcome := "declined"
	if approved {
		outcome = "approved"
	}
	subject := fmt.Sprintf("Your request to join %s was %s", organizationName, outcome)
	plain := fmt.Sprintf("Your request to join %s was %s.\n\n%s", organizationName, outcome, link)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Join request %s</h2>
			<p>Your request to join <strong>%s</strong> was %s.</p>
			<p><a href="%s">Open CollabDoor</a></p>
		</body>
		</html>
	`, outcome, html.EscapeString(organizationName), outcome, link)

	return s.transport.Send(to, subject, plain, body)
}
