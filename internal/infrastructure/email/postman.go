package email

import (
	"context"

	"go.uber.org/zap"
)

// Postman composes campaign messages and hands them to a Sender. Errors are
// logged and not returned to the caller.
type Postman struct {
	sender  Sender
	baseURL string
	logger  *zap.Logger
}

// NewPostman creates a new postman
func NewPostman(sender Sender, baseURL string, logger *zap.Logger) *Postman {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postman{sender: sender, baseURL: baseURL, logger: logger}
}

// Composer returns the composer of the named campaign
func (p *Postman) Composer(campaign string) *Composer {
	return NewComposer(campaign, p.baseURL)
}

// Deliver sends the result of a Composer call
func (p *Postman) Deliver(ctx context.Context, msg *Message, err error) {
	if err != nil {
		p.logger.Error("failed to compose email", zap.Error(err))
		return
	}
	if err := p.sender.Send(ctx, msg); err != nil {
		to := ""
		if len(msg.To) > 0 {
			to = msg.To[0].Email
		}
		p.logger.Error("failed to send email",
			zap.String("to", to),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
	}
}
