package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cartify/internal/domain"
	"cartify/internal/service/billing"
	"cartify/internal/service/payment"
	"go.uber.org/zap"
)

type State string

const (
	StateIdle            State = "idle"
	StateSubmitted       State = "submitted"
	StatePOSQueued       State = "pos_queued"
	StatePaymentInFlight State = "payment_in_flight"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)

var (
	// ErrBusy is returned while another checkout call is in flight.
	ErrBusy = errors.New("checkout action already in progress")
	// ErrNoBill is returned when fulfillment is requested before a bill exists.
	ErrNoBill = errors.New("no bill to fulfill")
	// ErrStaleBill is returned for a bill that is not the current one or
	// whose cart changed after it was priced.
	ErrStaleBill = errors.New("bill is stale, submit the cart again")
	// ErrAlreadyCompleted is returned for fulfillment after success.
	ErrAlreadyCompleted = errors.New("checkout already completed")
	// ErrDiscarded is returned to a call whose checkout was reset meanwhile.
	ErrDiscarded = errors.New("checkout was reset, result discarded")
)

type cartStore interface {
	Snapshot() domain.Cart
	Hold(version uint64) bool
	Release()
	Clear() domain.Cart
}

type submitter interface {
	Submit(ctx context.Context, cart domain.Cart) (billing.Submission, error)
	Forget()
}

type posQueue interface {
	CreatePOSBill(ctx context.Context, billID string) (string, error)
}

type paymentProcessor interface {
	Pay(ctx context.Context, bill domain.Bill, payer domain.Payer, card payment.CardInput) domain.PaymentAttempt
}

// Failure describes why the last fulfillment attempt failed.
type Failure struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// Status is a point-in-time copy of the dispatcher.
type Status struct {
	State       State           `json:"state"`
	Bill        *domain.Bill    `json:"bill,omitempty"`
	CartVersion uint64          `json:"cartVersion,omitempty"`
	Submitting  bool            `json:"submitting"`
	Message     string          `json:"message,omitempty"`
	Failure     *Failure        `json:"failure,omitempty"`
	Payment     *domain.Outcome `json:"payment,omitempty"`
}

// Dispatcher owns the checkout of one cart: bill submission, then exactly
// one of the POS or online payment paths. It holds the cart for the length
// of a fulfillment call and is the only caller of cart Clear. Its lock is
// never held across remote calls.
type Dispatcher struct {
	cart     cartStore
	billing  submitter
	pos      posQueue
	payments paymentProcessor
	logger   *zap.Logger

	mu         sync.Mutex
	state      State
	sub        *billing.Submission
	submitting bool
	epoch      uint64
	message    string
	failure    *Failure
	outcome    *domain.Outcome
}

func New(cart cartStore, billing submitter, pos posQueue, payments paymentProcessor, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		cart:     cart,
		billing:  billing,
		pos:      pos,
		payments: payments,
		logger:   logger,
		state:    StateIdle,
	}
}

// Submit prices the current cart. A failed submit leaves the previous bill
// and state as they were.
func (d *Dispatcher) Submit(ctx context.Context) (Status, error) {
	d.mu.Lock()
	if d.submitting || d.inFlight() {
		d.mu.Unlock()
		return Status{}, ErrBusy
	}
	snap := d.cart.Snapshot()
	if snap.IsEmpty() {
		d.mu.Unlock()
		return Status{}, billing.ErrEmptyCart
	}
	d.submitting = true
	epoch := d.epoch
	d.mu.Unlock()

	sub, err := d.billing.Submit(ctx, snap)

	d.mu.Lock()
	defer d.mu.Unlock()
	if epoch != d.epoch {
		return d.statusLocked(), ErrDiscarded
	}
	d.submitting = false
	if err != nil {
		d.logger.Info("checkout: submit failed", zap.Error(err))
		return d.statusLocked(), err
	}
	d.sub = &sub
	d.state = StateSubmitted
	d.failure = nil
	d.message = ""
	d.outcome = nil
	return d.statusLocked(), nil
}

// SendToPOS queues the current bill for in-store payment.
func (d *Dispatcher) SendToPOS(ctx context.Context, billID string) (Status, error) {
	bill, epoch, err := d.begin(billID, StatePOSQueued)
	if err != nil {
		return d.State(), err
	}

	msg, err := d.pos.CreatePOSBill(ctx, bill.BillID)

	d.mu.Lock()
	defer d.mu.Unlock()
	if epoch != d.epoch {
		d.cart.Release()
		return d.statusLocked(), ErrDiscarded
	}
	if err != nil {
		d.fail("pos", err.Error())
		return d.statusLocked(), fmt.Errorf("send to pos: %w", err)
	}
	d.message = msg
	d.completeLocked()
	return d.statusLocked(), nil
}

// PayOnline runs an online payment for the current bill. A failed payment
// returns the *domain.PaymentFailure and leaves the bill pending.
func (d *Dispatcher) PayOnline(ctx context.Context, billID string, payer domain.Payer, card payment.CardInput) (Status, error) {
	bill, epoch, err := d.begin(billID, StatePaymentInFlight)
	if err != nil {
		return d.State(), err
	}

	attempt := d.payments.Pay(ctx, bill, payer, card)

	d.mu.Lock()
	defer d.mu.Unlock()
	if epoch != d.epoch {
		d.cart.Release()
		return d.statusLocked(), ErrDiscarded
	}
	outcome := attempt.Outcome
	d.outcome = &outcome
	if !outcome.Succeeded() {
		f := outcome.Failure
		if f == nil {
			f = &domain.PaymentFailure{Kind: domain.FailureIncomplete, Reason: "no outcome"}
		}
		d.fail(string(f.Kind), f.Reason)
		return d.statusLocked(), f
	}
	d.sub.Bill.Status = domain.BillPaid
	d.completeLocked()
	return d.statusLocked(), nil
}

// begin checks that billID may be fulfilled now, holds the cart at the
// version the bill was priced from and moves to next.
func (d *Dispatcher) begin(billID string, next State) (domain.Bill, uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.state == StateCompleted:
		return domain.Bill{}, 0, ErrAlreadyCompleted
	case d.submitting || d.inFlight():
		return domain.Bill{}, 0, ErrBusy
	case d.sub == nil:
		return domain.Bill{}, 0, ErrNoBill
	case billID != d.sub.Bill.BillID || !d.cart.Hold(d.sub.CartVersion):
		return domain.Bill{}, 0, ErrStaleBill
	}
	d.state = next
	d.failure = nil
	d.outcome = nil
	return d.sub.Bill, d.epoch, nil
}

func (d *Dispatcher) fail(kind, reason string) {
	d.cart.Release()
	d.state = StateFailed
	d.failure = &Failure{Kind: kind, Reason: reason}
	d.logger.Info("checkout: fulfillment failed",
		zap.String("bill_id", d.sub.Bill.BillID),
		zap.String("kind", kind),
		zap.String("reason", reason),
	)
}

// completeLocked is the only place the cart is cleared, which also lifts
// the hold; the state check makes a second clear impossible.
func (d *Dispatcher) completeLocked() {
	if d.state == StateCompleted {
		return
	}
	d.state = StateCompleted
	d.cart.Clear()
	d.logger.Info("checkout: completed", zap.String("bill_id", d.sub.Bill.BillID))
}

// Reset abandons the current checkout. Results of a submit still in flight
// are discarded. It is refused while a fulfillment call is in flight.
func (d *Dispatcher) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight() {
		return ErrBusy
	}
	d.epoch++
	d.state = StateIdle
	d.sub = nil
	d.submitting = false
	d.message = ""
	d.failure = nil
	d.outcome = nil
	d.billing.Forget()
	return nil
}

func (d *Dispatcher) State() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statusLocked()
}

func (d *Dispatcher) inFlight() bool {
	return d.state == StatePOSQueued || d.state == StatePaymentInFlight
}

func (d *Dispatcher) statusLocked() Status {
	st := Status{
		State:      d.state,
		Submitting: d.submitting,
		Message:    d.message,
	}
	if d.sub != nil {
		bill := d.sub.Bill
		bill.Lines = append([]domain.BillLine(nil), bill.Lines...)
		st.Bill = &bill
		st.CartVersion = d.sub.CartVersion
	}
	if d.failure != nil {
		f := *d.failure
		st.Failure = &f
	}
	if d.outcome != nil {
		o := *d.outcome
		o.Failure = nil
		st.Payment = &o
	}
	return st
}
