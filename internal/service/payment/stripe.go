package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cartify/internal/domain"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
)

// StripeGateway confirms payment intents created by the backend.
type StripeGateway struct {
	client paymentintent.Client
}

// NewStripeGateway builds a gateway with its own backend so the global
// stripe.Key is never touched. apiURL overrides the Stripe endpoint when set.
func NewStripeGateway(secretKey, apiURL string, httpClient *http.Client) *StripeGateway {
	cfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if apiURL != "" {
		cfg.URL = stripe.String(strings.TrimRight(apiURL, "/"))
	}
	return &StripeGateway{client: paymentintent.Client{
		B:   stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Key: secretKey,
	}}
}

// ConfirmPayment confirms the intent with the card's PaymentMethod. Only
// details.Email is forwarded, as receipt_email: confirm takes no billing
// details for an existing PaymentMethod, so the payer name stays with the
// card collected by the client and is not sent from here.
func (g *StripeGateway) ConfirmPayment(ctx context.Context, clientSecret string, details BillingDetails, card CardInput) (Confirmation, error) {
	intentID, err := intentIDFromSecret(clientSecret)
	if err != nil {
		return Confirmation{}, err
	}
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(card.PaymentMethodToken()),
		ReceiptEmail:  stripe.String(details.Email),
	}
	params.Context = ctx

	pi, err := g.client.Confirm(intentID, params)
	if err != nil {
		return Confirmation{}, mapStripeError(err)
	}
	return Confirmation{PaymentIntentID: pi.ID, Status: string(pi.Status)}, nil
}

// intentIDFromSecret extracts "pi_123" from "pi_123_secret_abc".
func intentIDFromSecret(secret string) (string, error) {
	id, _, ok := strings.Cut(secret, "_secret_")
	if !ok || id == "" {
		return "", &domain.PaymentFailure{Kind: domain.FailureRemote, Reason: "malformed client secret"}
	}
	return id, nil
}

func mapStripeError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return &domain.PaymentFailure{Kind: domain.FailureNetwork, Reason: err.Error()}
	}
	reason := se.Msg
	if se.Code != "" {
		reason = fmt.Sprintf("%s (%s)", se.Msg, se.Code)
	}
	switch se.Type {
	case stripe.ErrorTypeCard:
		return &domain.PaymentFailure{Kind: domain.FailureDeclined, Reason: reason}
	case stripe.ErrorTypeInvalidRequest:
		return &domain.PaymentFailure{Kind: domain.FailureValidation, Reason: reason}
	default:
		return &domain.PaymentFailure{Kind: domain.FailureNetwork, Reason: reason}
	}
}
