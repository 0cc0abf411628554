package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/checkout/internal/checkout"
)

type mockLister struct {
	listFunc func(ctx context.Context, filter checkout.ListFilter, page, limit int) (*checkout.ListResult, error)
}

func (m *mockLister) List(ctx context.Context, filter checkout.ListFilter, page, limit int) (*checkout.ListResult, error) {
	return m.listFunc(ctx, filter, page, limit)
}

func TestService_WriteCSV(t *testing.T) {
	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	expired := created.Add(2 * time.Hour)
	userID := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")

	trx := &checkout.Transaction{
		ID:           "1698400000000A1B2C3D4E5F60708",
		UserID:       userID,
		ProductName:  "100 Diamonds",
		ProductPrice: 10000,
		ProductQty:   2,
		Fees:         1500,
		Price:        20000,
		TotalPrice:   21000,
		Profit:       4500,
		OrderStatus:  checkout.OrderPending,
		PaidStatus:   checkout.PaidPending,
		PaymentName:  "BCA Virtual Account",
		PaymentRef:   "PD12345",
		ExpiredAt:    expired,
		CreatedAt:    created,
	}

	svc := NewService(&mockLister{
		listFunc: func(_ context.Context, _ checkout.ListFilter, page, limit int) (*checkout.ListResult, error) {
			if limit != pageSize {
				t.Errorf("expected page size %d, got %d", pageSize, limit)
			}

			return &checkout.ListResult{Count: 1, TotalPage: 1, Transactions: []*checkout.Transaction{trx}}, nil
		},
	})

	var buf bytes.Buffer

	count, err := svc.WriteCSV(context.Background(), &buf, checkout.ListFilter{})
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected header plus 1 row, got %d rows", len(rows))
	}

	if rows[0][0] != "trx_id" {
		t.Errorf("expected header row, got %v", rows[0])
	}

	want := []string{
		"1698400000000A1B2C3D4E5F60708",
		"2026-08-30T10:00:00Z",
		"7c9e6679-7425-40de-944b-e07fc1f90ae7",
		"100 Diamonds", "2", "10000",
		"1500", "20000", "21000", "4500",
		"PENDING", "PENDING",
		"BCA Virtual Account", "PD12345",
		"2026-08-30T12:00:00Z",
	}

	for i, field := range want {
		if rows[1][i] != field {
			t.Errorf("column %d: expected %q, got %q", i, field, rows[1][i])
		}
	}
}

func TestService_WriteCSV_PagesThroughResults(t *testing.T) {
	pages := map[int][]*checkout.Transaction{
		1: {{ID: "a"}, {ID: "b"}},
		2: {{ID: "c"}},
	}

	var calls []int

	svc := NewService(&mockLister{
		listFunc: func(_ context.Context, _ checkout.ListFilter, page, _ int) (*checkout.ListResult, error) {
			calls = append(calls, page)

			return &checkout.ListResult{Count: 3, TotalPage: 2, Transactions: pages[page]}, nil
		},
	})

	var buf bytes.Buffer

	count, err := svc.WriteCSV(context.Background(), &buf, checkout.ListFilter{})
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	if count != 3 {
		t.Errorf("expected 3 rows, got %d", count)
	}

	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("expected pages [1 2], got %v", calls)
	}
}

func TestService_WriteCSV_ListError(t *testing.T) {
	svc := NewService(&mockLister{
		listFunc: func(context.Context, checkout.ListFilter, int, int) (*checkout.ListResult, error) {
			return nil, errors.New("store down")
		},
	})

	var buf bytes.Buffer

	if _, err := svc.WriteCSV(context.Background(), &buf, checkout.ListFilter{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 8, 30, 10, 4, 5, 0, time.UTC)

	if got := Filename(at); got != "settlement_20260830_100405.csv" {
		t.Errorf("unexpected filename %s", got)
	}
}
