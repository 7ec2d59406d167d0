package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is one outbound email, optionally with an attachment.
type Message struct {
	ToName     string
	ToEmail    string
	Subject    string
	PlainBody  string
	HTMLBody   string
	Attachment *Attachment
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte // base64-encoded by the mailer
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ===== SENDGRID =====

type SendGridMailer struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
	logger    *slog.Logger
}

func NewSendGridMailer(apiKey, fromName, fromEmail string, logger *slog.Logger) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
		logger:    logger,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)

	body := msg.HTMLBody
	if body == "" {
		body = msg.PlainBody
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainBody, body)

	if msg.Attachment != nil {
		attachment := mail.NewAttachment()
		attachment.SetFilename(msg.Attachment.Filename)
		attachment.SetType(msg.Attachment.ContentType)
		attachment.SetContent(encodeBase64(msg.Attachment.Data))
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message: status %d", resp.StatusCode)
	}

	m.logger.Info("email sent", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}

// ===== CONSOLE FALLBACK =====

// ConsoleMailer logs instead of sending; used when no SendGrid key is
// configured (local development).
type ConsoleMailer struct {
	logger *slog.Logger
}

func NewConsoleMailer(logger *slog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	attachment := ""
	if msg.Attachment != nil {
		attachment = msg.Attachment.Filename
	}
	m.logger.Info("email (console)",
		"to", msg.ToEmail,
		"subject", msg.Subject,
		"body", msg.PlainBody,
		"attachment", attachment,
	)
	return nil
}
