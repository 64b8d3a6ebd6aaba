package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cartify/internal/domain"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCart is returned for a cart with no line items.
	ErrEmptyCart = fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	// ErrSuperseded is returned to a submit whose result arrived after a
	// newer submit had started.
	ErrSuperseded = errors.New("bill request superseded")
)

type biller interface {
	CreateBilling(ctx context.Context, lines []domain.BillingLine) (domain.Bill, error)
}

// Submission is a confirmed bill and the cart version it was priced from.
type Submission struct {
	Bill        domain.Bill
	CartVersion uint64
	Seq         uint64
}

// Initiator turns cart snapshots into server priced bills. Only the most
// recent submit can produce a result.
type Initiator struct {
	remote biller
	logger *zap.Logger

	mu     sync.Mutex
	seq    uint64
	latest *Submission
}

func New(remote biller, logger *zap.Logger) *Initiator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Initiator{remote: remote, logger: logger}
}

// Submit sends ids and quantities only; prices and weights are recomputed
// by the backend.
func (i *Initiator) Submit(ctx context.Context, cart domain.Cart) (Submission, error) {
	if cart.IsEmpty() {
		return Submission{}, ErrEmptyCart
	}
	lines := make([]domain.BillingLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, domain.BillingLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	i.mu.Lock()
	i.seq++
	seq := i.seq
	i.mu.Unlock()

	bill, err := i.remote.CreateBilling(ctx, lines)

	i.mu.Lock()
	defer i.mu.Unlock()
	if seq != i.seq {
		i.logger.Info("billing: discarding superseded result", zap.Uint64("seq", seq), zap.Uint64("latest_seq", i.seq))
		return Submission{}, ErrSuperseded
	}
	if err != nil {
		return Submission{}, fmt.Errorf("create bill: %w", err)
	}
	bill.Status = domain.BillPending
	sub := Submission{Bill: bill, CartVersion: cart.Version, Seq: seq}
	i.latest = &sub
	i.logger.Info("billing: bill created",
		zap.String("bill_id", bill.BillID),
		zap.String("total", domain.FormatAmount(bill.TotalBilling)),
		zap.Int("lines", len(lines)),
	)
	return sub, nil
}

// Latest returns the most recent confirmed submission.
func (i *Initiator) Latest() (Submission, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.latest == nil {
		return Submission{}, false
	}
	return *i.latest, true
}

// Forget drops the latest submission and invalidates any submit in flight.
func (i *Initiator) Forget() {
	i.mu.Lock()
	i.seq++
	i.latest = nil
	i.mu.Unlock()
}
