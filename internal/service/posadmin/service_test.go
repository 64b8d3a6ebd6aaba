package posadmin

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"cartify/internal/domain"
)

type stubClient struct {
	bills    domain.POSBills
	listErr  error
	paidID   string
	paidErr  error
	document []byte
}

func (s *stubClient) ListPOSBills(context.Context) (domain.POSBills, error) {
	return s.bills, s.listErr
}

func (s *stubClient) MarkPOSBillPaid(_ context.Context, id string) error {
	s.paidID = id
	return s.paidErr
}

func (s *stubClient) PrintBill(context.Context, string) ([]byte, error) {
	return s.document, nil
}

func day(d int) time.Time {
	return time.Date(2024, 5, d, 12, 0, 0, 0, time.UTC)
}

func TestPendingFiltersByCustomerName(t *testing.T) {
	svc := New(&stubClient{bills: domain.POSBills{Pending: []domain.Bill{
		{BillID: "B1", CustomerName: "Ana Lopez"},
		{BillID: "B2", CustomerName: "Bo"},
		{BillID: "B3", CustomerName: "ANABEL"},
	}}}, nil)

	got, err := svc.Pending(context.Background(), " ana ")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(got) != 2 || got[0].BillID != "B1" || got[1].BillID != "B3" {
		t.Fatalf("unexpected bills %+v", got)
	}

	all, _ := svc.Pending(context.Background(), "")
	if len(all) != 3 {
		t.Fatalf("empty query should list all, got %d", len(all))
	}
}

func TestMarkPaid(t *testing.T) {
	client := &stubClient{}
	svc := New(client, nil)

	if err := svc.MarkPaid(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.MarkPaid(context.Background(), "r1"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if client.paidID != "r1" {
		t.Fatalf("expected r1 marked paid, got %q", client.paidID)
	}
}

func TestPrintDecodesPayloads(t *testing.T) {
	pdf := []byte("%PDF-1.7\nbody")
	cases := map[string][]byte{
		"raw":      pdf,
		"base64":   []byte(base64.StdEncoding.EncodeToString(pdf)),
		"data uri": []byte("data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf)),
		"unpadded": []byte(base64.RawStdEncoding.EncodeToString(pdf)),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			svc := New(&stubClient{document: payload}, nil)
			doc, err := svc.Print(context.Background(), "B1")
			if err != nil {
				t.Fatalf("Print: %v", err)
			}
			if string(doc) != string(pdf) {
				t.Fatalf("unexpected document %q", doc)
			}
		})
	}
}

func TestPrintRejectsNonPDF(t *testing.T) {
	svc := New(&stubClient{document: []byte("<html>oops</html>")}, nil)

	if _, err := svc.Print(context.Background(), "B1"); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestHistoryFilters(t *testing.T) {
	svc := New(&stubClient{bills: domain.POSBills{All: []domain.Bill{
		{BillID: "INV-001", CreatedAt: day(1)},
		{BillID: "INV-002", CreatedAt: day(2)},
		{BillID: "REF-003", CreatedAt: day(3)},
	}}}, nil)

	got, err := svc.History(context.Background(), HistoryFilter{BillID: "inv"})
	if err != nil || len(got) != 2 {
		t.Fatalf("expected two INV bills, got %+v %v", got, err)
	}

	got, _ = svc.History(context.Background(), HistoryFilter{From: day(2), To: day(3)})
	if len(got) != 2 || got[0].BillID != "INV-002" {
		t.Fatalf("expected inclusive range, got %+v", got)
	}

	if _, err := svc.History(context.Background(), HistoryFilter{From: day(3), To: day(1)}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}
}

func TestListFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	svc := New(&stubClient{listErr: boom}, nil)

	if _, err := svc.Pending(context.Background(), ""); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
