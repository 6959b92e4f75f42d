package email

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	defaultSendGridHost = "https://api.sendgrid.com"
	sendGridEndpoint    = "/v3/mail/send"
)

// Errors returned by senders
var (
	ErrMissingAPIKey = errors.New("email: missing sendgrid api key")
	ErrNoRecipients  = errors.New("email: message has no recipients")
	ErrSendFailed    = errors.New("email: sending failed")
)

// Address is a named e-mail address
type Address struct {
	Name  string
	Email string
}

// Attachment is a file sent with a message
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a transactional e-mail
type Message struct {
	To          []Address
	Subject     string
	TextContent string
	HTMLContent string
	Attachments []Attachment
	Categories  []string
}

// Sender delivers transactional e-mail
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SendGridConfig contains the SendGrid settings
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Host overrides the API host
	Host string
}

// SendGridSender sends messages through the SendGrid v3 mail API
type SendGridSender struct {
	key    string
	host   string
	from   *sgmail.Email
	logger *zap.Logger
}

// NewSendGridSender creates a new SendGrid sender
func NewSendGridSender(config SendGridConfig, logger *zap.Logger) (*SendGridSender, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	host := config.Host
	if host == "" {
		host = defaultSendGridHost
	}
	return &SendGridSender{
		key:    config.APIKey,
		host:   host,
		from:   sgmail.NewEmail(config.FromName, config.FromEmail),
		logger: logger,
	}, nil
}

// Send delivers msg synchronously
func (s *SendGridSender) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	req := sendgrid.GetRequest(s.key, sendGridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		s.logger.Error("sending email", zap.String("subject", msg.Subject), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.logger.Error("sending email",
			zap.String("subject", msg.Subject),
			zap.Int("status", res.StatusCode),
			zap.String("body", res.Body),
		)
		return fmt.Errorf("%w: HTTP %d", ErrSendFailed, res.StatusCode)
	}
	s.logger.Debug("email sent", zap.String("subject", msg.Subject), zap.Int("recipients", len(msg.To)))
	return nil
}

func (s *SendGridSender) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Email))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	for _, a := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        a.ContentType,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}
	if len(msg.Categories) > 0 {
		m.AddCategories(msg.Categories...)
	}
	return m
}

// LogSender only logs the messages. It is used when e-mail is disabled.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message
func (s *LogSender) Send(_ context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	s.logger.Info("email not sent, sending is disabled",
		zap.String("to", msg.To[0].Email),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}

var (
	_ Sender = (*SendGridSender)(nil)
	_ Sender = (*LogSender)(nil)
)
