package domain

import "fmt"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// FailureKind classifies why a payment attempt did not succeed.
type FailureKind string

const (
	FailureDeclined   FailureKind = "declined"
	FailureValidation FailureKind = "validation"
	FailureNetwork    FailureKind = "network"
	FailureRemote     FailureKind = "remote"
	FailureIncomplete FailureKind = "incomplete"
)

// PaymentFailure is the typed reason attached to a failed outcome.
type PaymentFailure struct {
	Kind   FailureKind
	Reason string
}

func (f *PaymentFailure) Error() string {
	return fmt.Sprintf("payment %s: %s", f.Kind, f.Reason)
}

// Payer identifies who pays online. Both fields are required.
type Payer struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// Outcome is the resolved result of a payment attempt.
type Outcome struct {
	Status          PaymentStatus   `json:"status"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty"`
	Failure         *PaymentFailure `json:"-"`
}

func (o Outcome) Succeeded() bool {
	return o.Status == PaymentSucceeded
}

func SucceededOutcome(intentID string) Outcome {
	return Outcome{Status: PaymentSucceeded, PaymentIntentID: intentID}
}

func FailedOutcome(kind FailureKind, reason string) Outcome {
	return Outcome{Status: PaymentFailed, Failure: &PaymentFailure{Kind: kind, Reason: reason}}
}

// PaymentAttempt lives only for the duration of one online payment.
type PaymentAttempt struct {
	BillID       string
	Amount       int64
	PayerName    string
	PayerEmail   string
	ClientSecret string
	Outcome      Outcome
}
