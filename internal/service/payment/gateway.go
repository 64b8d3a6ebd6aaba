package payment

import (
	"context"
	"errors"
)

// ErrGatewayDisabled is returned by the gateway used when no payment
// provider is configured.
var ErrGatewayDisabled = errors.New("online payments are not configured")

// BillingDetails is what the gateway records about the payer.
type BillingDetails struct {
	Name  string
	Email string
}

// CardInput is collected by the gateway's own UI. The terminal only ever
// sees the opaque payment method token it produces.
type CardInput interface {
	PaymentMethodToken() string
}

// PaymentMethod is a CardInput backed by a token string such as "pm_...".
type PaymentMethod string

func (p PaymentMethod) PaymentMethodToken() string { return string(p) }

// Confirmation is the gateway's view of a confirmed intent.
type Confirmation struct {
	PaymentIntentID string
	Status          string
}

// Gateway confirms a payment intent. Typed failures are returned as
// *domain.PaymentFailure.
type Gateway interface {
	ConfirmPayment(ctx context.Context, clientSecret string, details BillingDetails, card CardInput) (Confirmation, error)
}

type disabledGateway struct{}

// DisabledGateway rejects every confirmation.
func DisabledGateway() Gateway { return disabledGateway{} }

func (disabledGateway) ConfirmPayment(context.Context, string, BillingDetails, CardInput) (Confirmation, error) {
	return Confirmation{}, ErrGatewayDisabled
}
