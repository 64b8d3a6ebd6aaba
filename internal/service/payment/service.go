package payment

import (
	"context"
	"errors"
	"strings"

	"cartify/internal/domain"
	"cartify/internal/remote"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type intentCreator interface {
	CreatePaymentIntent(ctx context.Context, billID string, amount int64) (string, error)
}

// Processor runs one online payment: intent, confirmation, outcome. It
// never touches the cart.
type Processor struct {
	intents  intentCreator
	gateway  Gateway
	validate *validator.Validate
	logger   *zap.Logger
}

func New(intents intentCreator, gateway Gateway, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gateway == nil {
		gateway = DisabledGateway()
	}
	return &Processor{
		intents:  intents,
		gateway:  gateway,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Pay charges bill.TotalBilling. Every failure is reported in the returned
// attempt's outcome; an intent that was created but not confirmed is a
// failure.
func (p *Processor) Pay(ctx context.Context, bill domain.Bill, payer domain.Payer, card CardInput) domain.PaymentAttempt {
	payer.Name = strings.TrimSpace(payer.Name)
	payer.Email = strings.TrimSpace(payer.Email)
	attempt := domain.PaymentAttempt{
		BillID:     bill.BillID,
		PayerName:  payer.Name,
		PayerEmail: payer.Email,
	}
	fail := func(kind domain.FailureKind, reason string) domain.PaymentAttempt {
		attempt.Outcome = domain.FailedOutcome(kind, reason)
		p.logger.Info("payment: attempt failed",
			zap.String("bill_id", bill.BillID),
			zap.String("kind", string(kind)),
			zap.String("reason", reason),
		)
		return attempt
	}

	if err := p.validate.Struct(payer); err != nil {
		return fail(domain.FailureValidation, payerMessage(err))
	}
	if card == nil || strings.TrimSpace(card.PaymentMethodToken()) == "" {
		return fail(domain.FailureValidation, "card details required")
	}
	if bill.BillID == "" {
		return fail(domain.FailureValidation, "bill id required")
	}
	amount, err := domain.ToMinorUnits(bill.TotalBilling)
	if err != nil {
		return fail(domain.FailureValidation, err.Error())
	}
	attempt.Amount = amount

	secret, err := p.intents.CreatePaymentIntent(ctx, bill.BillID, amount)
	if err != nil {
		kind := domain.FailureRemote
		if remote.IsTransient(err) {
			kind = domain.FailureNetwork
		}
		return fail(kind, err.Error())
	}
	attempt.ClientSecret = secret

	conf, err := p.gateway.ConfirmPayment(ctx, secret, BillingDetails{Name: payer.Name, Email: payer.Email}, card)
	if err != nil {
		var pf *domain.PaymentFailure
		if errors.As(err, &pf) {
			return fail(pf.Kind, pf.Reason)
		}
		return fail(domain.FailureNetwork, err.Error())
	}
	if conf.Status != string(domain.PaymentSucceeded) {
		return fail(domain.FailureIncomplete, "payment intent status "+conf.Status)
	}

	attempt.Outcome = domain.SucceededOutcome(conf.PaymentIntentID)
	p.logger.Info("payment: succeeded",
		zap.String("bill_id", bill.BillID),
		zap.String("payment_intent_id", conf.PaymentIntentID),
		zap.Int64("amount_minor", amount),
	)
	return attempt
}

func payerMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	default:
		return field + " is invalid"
	}
}
