package payment

import (
	"context"

	"github.com/dpnk/backend/internal/domain/shared"
)

// Gateway errors
var (
	ErrInvalidSignature   = shared.NewDomainError("INVALID_SIGNATURE", "Payment gateway signature does not match")
	ErrGatewayUnavailable = shared.NewDomainError("GATEWAY_UNAVAILABLE", "Payment gateway is not available")
	ErrGatewayRejected    = shared.NewDomainError("GATEWAY_REJECTED", "Payment gateway rejected the request")
)

// Payer identifies the person paying in the gateway form
type Payer struct {
	FirstName string
	LastName  string
	Email     string
	Language  string
	ClientIP  string
}

// Form is the redirect form posted by the browser to the gateway
type Form struct {
	Action string
	Fields map[string]string
}

// Notification is the status change ping sent by the gateway
type Notification struct {
	PosID     string
	SessionID string
	Timestamp string
	Signature string
}

// Gateway is an online payment gateway
type Gateway interface {
	// NewSessionID returns a unique id for a new payment
	NewSessionID() string

	// PaymentForm builds the signed redirect form for p
	PaymentForm(p *Payment, payer Payer, description string) (*Form, error)

	// VerifyNotification checks the signature of a gateway ping
	VerifyNotification(n Notification) error

	// FetchStatus asks the gateway for the current state of a session
	FetchStatus(ctx context.Context, sessionID string) (*GatewayReport, error)
}
