package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"cartify/internal/domain"
	"cartify/internal/remote"
	"cartify/internal/repository/blob"
	"cartify/internal/service/billing"
	"cartify/internal/service/cart"
	"cartify/internal/service/payment"
	"github.com/shopspring/decimal"
)

func pen(id string) domain.Product {
	return domain.Product{ID: id, Name: "Pen " + id, Price: decimal.NewFromInt(10), Weight: decimal.NewFromInt(5)}
}

// newCartFixture wires the dispatcher to a real cart store.
func newCartFixture(t *testing.T) (*cart.Store, *stubPOS, *stubPayments, *Dispatcher) {
	t.Helper()
	store := cart.New(blob.NewMemory(), nil, time.Second)
	t.Cleanup(func() { store.Close(context.Background()) })
	if _, err := store.Add(pen("P1"), 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	biller := &stubBiller{bill: domain.Bill{BillID: "BILL1", TotalBilling: decimal.NewFromInt(10)}}
	pos := &stubPOS{msg: "queued", block: make(chan struct{})}
	payments := &stubPayments{outcome: domain.SucceededOutcome("pi_1")}
	d := New(store, billing.New(biller, nil), pos, payments, nil)
	if _, err := d.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return store, pos, payments, d
}

func TestCartLockedDuringPOSSend(t *testing.T) {
	store, pos, _, d := newCartFixture(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := d.SendToPOS(ctx, "BILL1")
		done <- err
	}()
	waitFor(t, func() bool { return d.State().State == StatePOSQueued })

	if _, err := store.Add(pen("P2"), 1); !errors.Is(err, cart.ErrLocked) {
		t.Fatalf("expected ErrLocked for add during POS send, got %v", err)
	}
	if _, err := store.Increment("P1"); !errors.Is(err, cart.ErrLocked) {
		t.Fatalf("expected ErrLocked for increment during POS send, got %v", err)
	}
	if _, err := store.Remove("P1"); !errors.Is(err, cart.ErrLocked) {
		t.Fatalf("expected ErrLocked for remove during POS send, got %v", err)
	}
	if items := store.Snapshot().Items; len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("cart changed during POS send: %+v", items)
	}

	close(pos.block)
	if err := <-done; err != nil {
		t.Fatalf("SendToPOS: %v", err)
	}
	if !store.Snapshot().IsEmpty() {
		t.Fatalf("expected billed cart cleared")
	}
	if _, err := store.Add(pen("P2"), 1); err != nil {
		t.Fatalf("cart must accept items after completion: %v", err)
	}
}

func TestCartUnlockedAfterFailedPOSSend(t *testing.T) {
	store, pos, _, d := newCartFixture(t)
	close(pos.block)
	pos.err = &remote.Error{Op: "create pos bill", StatusCode: 500}

	if _, err := d.SendToPOS(context.Background(), "BILL1"); err == nil {
		t.Fatalf("expected error")
	}
	c, err := store.Add(pen("P2"), 1)
	if err != nil {
		t.Fatalf("cart must be writable after a failed send: %v", err)
	}
	if len(c.Items) != 2 {
		t.Fatalf("unexpected items %+v", c.Items)
	}
	if _, err := d.SendToPOS(context.Background(), "BILL1"); !errors.Is(err, ErrStaleBill) {
		t.Fatalf("expected ErrStaleBill after the cart changed, got %v", err)
	}
}

func TestCartLockedDuringPayment(t *testing.T) {
	store, _, payments, d := newCartFixture(t)
	ctx := context.Background()
	payments.block = make(chan struct{})
	payments.outcome = domain.FailedOutcome(domain.FailureDeclined, "card_declined")

	done := make(chan error, 1)
	go func() {
		_, err := d.PayOnline(ctx, "BILL1", payer, payment.PaymentMethod("pm_1"))
		done <- err
	}()
	waitFor(t, func() bool { return d.State().State == StatePaymentInFlight })

	if _, err := store.Decrement("P1"); !errors.Is(err, cart.ErrLocked) {
		t.Fatalf("expected ErrLocked during payment, got %v", err)
	}

	close(payments.block)
	var pf *domain.PaymentFailure
	if err := <-done; !errors.As(err, &pf) {
		t.Fatalf("expected payment failure, got %v", err)
	}
	if len(store.Snapshot().Items) != 1 {
		t.Fatalf("declined payment must keep the cart")
	}
	if _, err := store.Increment("P1"); err != nil {
		t.Fatalf("cart must be writable after a declined payment: %v", err)
	}
}
