package posadmin

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"cartify/internal/domain"
	"go.uber.org/zap"
)

// ErrInvalidDocument is returned when the printable bill is not a PDF.
var ErrInvalidDocument = errors.New("bill document is not a pdf")

var pdfMagic = []byte("%PDF")

type posClient interface {
	ListPOSBills(ctx context.Context) (domain.POSBills, error)
	MarkPOSBillPaid(ctx context.Context, id string) error
	PrintBill(ctx context.Context, billID string) ([]byte, error)
}

// HistoryFilter narrows the bill history. Zero fields match everything;
// From and To are inclusive.
type HistoryFilter struct {
	BillID string
	From   time.Time
	To     time.Time
}

type Service struct {
	client posClient
	logger *zap.Logger
}

func New(client posClient, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

// Pending lists bills waiting for in-store payment whose customer name
// contains query, ignoring case.
func (s *Service) Pending(ctx context.Context, query string) ([]domain.Bill, error) {
	bills, err := s.client.ListPOSBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pos bills: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Bill, 0, len(bills.Pending))
	for _, b := range bills.Pending {
		if q == "" || strings.Contains(strings.ToLower(b.CustomerName), q) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Service) MarkPaid(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: bill record id required", domain.ErrValidation)
	}
	if err := s.client.MarkPOSBillPaid(ctx, id); err != nil {
		return fmt.Errorf("mark pos bill %s paid: %w", id, err)
	}
	s.logger.Info("posadmin: bill marked paid", zap.String("id", id))
	return nil
}

// Print returns the PDF for billID, decoding a base64 payload if needed.
func (s *Service) Print(ctx context.Context, billID string) ([]byte, error) {
	billID = strings.TrimSpace(billID)
	if billID == "" {
		return nil, fmt.Errorf("%w: bill id required", domain.ErrValidation)
	}
	raw, err := s.client.PrintBill(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("print bill %s: %w", billID, err)
	}
	doc, err := decodePDF(raw)
	if err != nil {
		s.logger.Warn("posadmin: unusable bill document", zap.String("bill_id", billID), zap.Int("bytes", len(raw)))
		return nil, err
	}
	return doc, nil
}

func decodePDF(raw []byte) ([]byte, error) {
	if bytes.HasPrefix(raw, pdfMagic) {
		return raw, nil
	}
	text := strings.TrimSpace(string(raw))
	if i := strings.Index(text, "base64,"); i >= 0 && strings.HasPrefix(text, "data:") {
		text = text[i+len("base64,"):]
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		doc, err := enc.DecodeString(text)
		if err == nil && bytes.HasPrefix(doc, pdfMagic) {
			return doc, nil
		}
	}
	return nil, ErrInvalidDocument
}

// History filters the POS bill history by bill id substring and an
// inclusive created-at range.
func (s *Service) History(ctx context.Context, f HistoryFilter) ([]domain.Bill, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, fmt.Errorf("%w: range end before start", domain.ErrValidation)
	}
	bills, err := s.client.ListPOSBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pos bills: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(f.BillID))
	out := make([]domain.Bill, 0, len(bills.All))
	for _, b := range bills.All {
		if q != "" && !strings.Contains(strings.ToLower(b.BillID), q) {
			continue
		}
		if !f.From.IsZero() && b.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && b.CreatedAt.After(f.To) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
