package payment

import (
	"context"
	"errors"
	"testing"

	"cartify/internal/domain"
	"cartify/internal/remote"
	"github.com/shopspring/decimal"
)

type stubIntents struct {
	secret     string
	err        error
	calls      int
	lastBill   string
	lastAmount int64
}

func (s *stubIntents) CreatePaymentIntent(_ context.Context, billID string, amount int64) (string, error) {
	s.calls++
	s.lastBill = billID
	s.lastAmount = amount
	return s.secret, s.err
}

type stubGateway struct {
	conf        Confirmation
	err         error
	calls       int
	lastSecret  string
	lastDetails BillingDetails
}

func (g *stubGateway) ConfirmPayment(_ context.Context, secret string, details BillingDetails, _ CardInput) (Confirmation, error) {
	g.calls++
	g.lastSecret = secret
	g.lastDetails = details
	return g.conf, g.err
}

func pendingBill() domain.Bill {
	return domain.Bill{BillID: "B1", TotalBilling: decimal.RequireFromString("19.99"), Status: domain.BillPending}
}

var payer = domain.Payer{Name: "Ana", Email: "ana@example.test"}

func TestPaySucceeds(t *testing.T) {
	intents := &stubIntents{secret: "pi_1_secret_x"}
	gw := &stubGateway{conf: Confirmation{PaymentIntentID: "pi_1", Status: "succeeded"}}
	p := New(intents, gw, nil)

	attempt := p.Pay(context.Background(), pendingBill(), payer, PaymentMethod("pm_card_visa"))
	if !attempt.Outcome.Succeeded() || attempt.Outcome.PaymentIntentID != "pi_1" {
		t.Fatalf("expected success, got %+v", attempt.Outcome)
	}
	if intents.lastAmount != 1999 || intents.lastBill != "B1" {
		t.Fatalf("expected 1999 minor units for B1, got %d for %s", intents.lastAmount, intents.lastBill)
	}
	if gw.lastSecret != "pi_1_secret_x" || gw.lastDetails.Email != "ana@example.test" {
		t.Fatalf("unexpected gateway call %+v", gw)
	}
	if attempt.ClientSecret != "pi_1_secret_x" || attempt.Amount != 1999 {
		t.Fatalf("attempt not filled in: %+v", attempt)
	}
}

func TestPayDeclined(t *testing.T) {
	gw := &stubGateway{err: &domain.PaymentFailure{Kind: domain.FailureDeclined, Reason: "card_declined"}}
	p := New(&stubIntents{secret: "pi_1_secret_x"}, gw, nil)

	attempt := p.Pay(context.Background(), pendingBill(), payer, PaymentMethod("pm_card_chargeDeclined"))
	if attempt.Outcome.Succeeded() {
		t.Fatalf("declined card reported success")
	}
	if attempt.Outcome.Failure.Kind != domain.FailureDeclined {
		t.Fatalf("expected declined, got %+v", attempt.Outcome.Failure)
	}
}

func TestPayValidatesPayer(t *testing.T) {
	cases := map[string]domain.Payer{
		"no name":   {Email: "ana@example.test"},
		"no email":  {Name: "Ana"},
		"bad email": {Name: "Ana", Email: "not-an-email"},
		"blank":     {Name: "  ", Email: "  "},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			intents := &stubIntents{secret: "pi_1_secret_x"}
			p := New(intents, &stubGateway{}, nil)

			attempt := p.Pay(context.Background(), pendingBill(), in, PaymentMethod("pm_1"))
			if attempt.Outcome.Failure == nil || attempt.Outcome.Failure.Kind != domain.FailureValidation {
				t.Fatalf("expected validation failure, got %+v", attempt.Outcome)
			}
			if intents.calls != 0 {
				t.Fatalf("invalid payer must not create an intent")
			}
		})
	}
}

func TestPayRequiresCard(t *testing.T) {
	p := New(&stubIntents{}, &stubGateway{}, nil)

	attempt := p.Pay(context.Background(), pendingBill(), payer, PaymentMethod(""))
	if attempt.Outcome.Failure == nil || attempt.Outcome.Failure.Kind != domain.FailureValidation {
		t.Fatalf("expected validation failure, got %+v", attempt.Outcome)
	}
}

func TestPayIntentFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domain.FailureKind
	}{
		{"network", &remote.Error{Op: "create payment intent", Err: errors.New("dial tcp: refused")}, domain.FailureNetwork},
		{"rejected", &remote.Error{Op: "create payment intent", StatusCode: 400, Message: "bill already paid"}, domain.FailureRemote},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &stubGateway{}
			p := New(&stubIntents{err: tc.err}, gw, nil)

			attempt := p.Pay(context.Background(), pendingBill(), payer, PaymentMethod("pm_1"))
			if attempt.Outcome.Failure == nil || attempt.Outcome.Failure.Kind != tc.want {
				t.Fatalf("expected %s, got %+v", tc.want, attempt.Outcome)
			}
			if gw.calls != 0 {
				t.Fatalf("gateway must not be called without an intent")
			}
		})
	}
}

func TestPayUnconfirmedIntentIsFailure(t *testing.T) {
	gw := &stubGateway{conf: Confirmation{PaymentIntentID: "pi_1", Status: "requires_action"}}
	p := New(&stubIntents{secret: "pi_1_secret_x"}, gw, nil)

	attempt := p.Pay(context.Background(), pendingBill(), payer, PaymentMethod("pm_1"))
	if attempt.Outcome.Succeeded() || attempt.Outcome.Failure.Kind != domain.FailureIncomplete {
		t.Fatalf("expected incomplete failure, got %+v", attempt.Outcome)
	}
}

func TestPayRejectsZeroAmount(t *testing.T) {
	intents := &stubIntents{secret: "pi_1_secret_x"}
	p := New(intents, &stubGateway{}, nil)
	bill := pendingBill()
	bill.TotalBilling = decimal.Zero

	attempt := p.Pay(context.Background(), bill, payer, PaymentMethod("pm_1"))
	if attempt.Outcome.Failure == nil || attempt.Outcome.Failure.Kind != domain.FailureValidation {
		t.Fatalf("expected validation failure, got %+v", attempt.Outcome)
	}
	if intents.calls != 0 {
		t.Fatalf("zero amount must not create an intent")
	}
}

func TestDisabledGateway(t *testing.T) {
	p := New(&stubIntents{secret: "pi_1_secret_x"}, nil, nil)

	attempt := p.Pay(context.Background(), pendingBill(), payer, PaymentMethod("pm_1"))
	if attempt.Outcome.Succeeded() {
		t.Fatalf("disabled gateway must not succeed")
	}
}
