// Package report produces settlement exports used to reconcile local
// transaction state against the payment providers' records.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/MrJamesThe3rd/checkout/internal/checkout"
)

// pageSize bounds how many rows one store round trip carries.
const pageSize = 500

// Lister supplies the transactions a report covers.
type Lister interface {
	List(ctx context.Context, filter checkout.ListFilter, page, limit int) (*checkout.ListResult, error)
}

// Service streams settlement reports.
type Service struct {
	transactions Lister
}

func NewService(transactions Lister) *Service {
	return &Service{transactions: transactions}
}

var csvHeader = []string{
	"trx_id", "created_at", "user_id",
	"product", "qty", "product_price",
	"fees", "price", "total_price", "profit",
	"order_status", "paid_status",
	"payment_method", "provider_ref", "expired_at",
}

// WriteCSV writes every transaction matching the filter as CSV rows and
// returns how many rows it wrote. Rows are paged out of the store so a large
// export never loads fully into memory.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, filter checkout.ListFilter) (int, error) {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	count := 0

	for page := 1; ; page++ {
		result, err := s.transactions.List(ctx, filter, page, pageSize)
		if err != nil {
			return count, fmt.Errorf("listing transactions: %w", err)
		}

		for _, trx := range result.Transactions {
			if err := cw.Write(record(trx)); err != nil {
				return count, fmt.Errorf("writing row for %s: %w", trx.ID, err)
			}

			count++
		}

		if page >= result.TotalPage || len(result.Transactions) == 0 {
			break
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("flushing report: %w", err)
	}

	return count, nil
}

func record(trx *checkout.Transaction) []string {
	return []string{
		trx.ID,
		trx.CreatedAt.Format(time.RFC3339),
		trx.UserID.String(),
		trx.ProductName,
		strconv.Itoa(trx.ProductQty),
		strconv.FormatInt(trx.ProductPrice, 10),
		strconv.FormatInt(trx.Fees, 10),
		strconv.FormatInt(trx.Price, 10),
		strconv.FormatInt(trx.TotalPrice, 10),
		strconv.FormatInt(trx.Profit, 10),
		string(trx.OrderStatus),
		string(trx.PaidStatus),
		trx.PaymentName,
		trx.PaymentRef,
		trx.ExpiredAt.Format(time.RFC3339),
	}
}

// Filename names a report after the moment it was generated.
func Filename(at time.Time) string {
	return fmt.Sprintf("settlement_%s.csv", at.Format("20060102_150405"))
}
