package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/checkout/internal/catalog"
)

const (
	// atomicTimeout bounds the whole settlement unit; exceeding it rolls
	// everything back.
	atomicTimeout = 10 * time.Second

	// expiryWindow is how long the buyer gets to pay before the provider
	// reports its own deadline.
	expiryWindow = 2 * time.Hour
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=checkout
type Store interface {
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*catalog.PaymentMethod, error)
	GetAvailableProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	TransactionExists(ctx context.Context, id string) (bool, error)
	GetPendingTransaction(ctx context.Context, id string, userID *uuid.UUID) (*Transaction, error)
	UpdateStatus(ctx context.Context, id string, order OrderStatus, paid PaidStatus) error
	CountTransactions(ctx context.Context, filter ListFilter) (int, error)
	ListTransactions(ctx context.Context, filter ListFilter, page, limit int) ([]*Transaction, error)

	// RunAtomic executes fn inside one store transaction bounded by timeout.
	// Any error from fn rolls back every write made through tx.
	RunAtomic(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, tx StoreTx) error) error
}

type StoreTx interface {
	// DecrementStock conditionally takes qty units off the product's stock.
	// Returns ErrStockEmpty when fewer than qty units remain.
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
	CreateTransaction(ctx context.Context, trx *Transaction) error
	FinalizeTransaction(ctx context.Context, id string, patch FinalizePatch) (*Transaction, error)
}

// PaymentGateway creates and cancels payment requests with the external
// provider. Cancel is idempotent per trxID and doubles as the compensation
// action when local persistence fails after a payment was created.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentReceipt, error)
	CancelPayment(ctx context.Context, req CancelRequest) error
}

type PaymentRequest struct {
	Amount      int64
	Description string
	ProviderID  string
	Provider    catalog.Provider
	TrxID       string
	Phone       string
}

// PaymentReceipt is what the provider reports back for a created payment.
type PaymentReceipt struct {
	Amount      int64
	Fee         int64
	Expired     time.Time
	PayCode     string
	IsQrcode    bool
	LinkPayment string
	QrData      string
	Ref         string
}

type CancelRequest struct {
	TrxID    string
	Provider catalog.Provider
}

// FinalizePatch carries the gateway-derived fields written onto the
// provisional row once the provider has accepted the payment.
type FinalizePatch struct {
	ExpiredAt     time.Time
	Fees          int64
	Profit        int64
	TotalPrice    int64
	PaymentNumber string
	IsQrcode      bool
	LinkPayment   string
	QrData        string
	PaymentRef    string
}

type Service struct {
	store   Store
	gateway PaymentGateway
}

func NewService(store Store, gateway PaymentGateway) *Service {
	return &Service{store: store, gateway: gateway}
}

type CreateParams struct {
	PaymentMethodID uuid.UUID
	ProductID       uuid.UUID
	ProductQty      int
	Phone           string
}

// Create settles a purchase: it validates eligibility, then inside one
// bounded store transaction reserves a unique id, prices the order, takes
// stock, persists a provisional row, asks the provider to create the
// payment and finalizes the row with the provider's answer. If the finalize
// write fails after the provider already created the payment, the payment is
// cancelled as compensation before the fault surfaces.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, params CreateParams) (*Transaction, error) {
	method, err := s.store.GetPaymentMethod(ctx, params.PaymentMethodID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrMethodUnavailable
		}

		return nil, fmt.Errorf("checking payment method: %w", err)
	}

	product, err := s.store.GetAvailableProduct(ctx, params.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrProductUnavailable
		}

		return nil, fmt.Errorf("checking product: %w", err)
	}

	if product.Stock < 1 || product.Stock < params.ProductQty {
		return nil, ErrStockEmpty
	}

	var result *Transaction

	err = s.store.RunAtomic(ctx, atomicTimeout, func(ctx context.Context, tx StoreTx) error {
		expiredAt := time.Now().Add(expiryWindow)

		trxID, err := s.generateID(ctx)
		if err != nil {
			return err
		}

		fees := int64(math.Round(float64(product.Price)*method.FeesInPercent/100)) + method.Fees
		price := product.Price * int64(params.ProductQty)
		totalPrice := price + fees

		if totalPrice <= method.MinAmount || totalPrice >= method.MaxAmount {
			return ErrAmountOutOfRange
		}

		// The pre-check above is a race window: stock is taken again here,
		// conditionally, so two concurrent settlements cannot both win the
		// last unit.
		if err := tx.DecrementStock(ctx, product.ID, params.ProductQty); err != nil {
			return err
		}

		trx := &Transaction{
			ID:                trxID,
			UserID:            userID,
			ProductID:         product.ID,
			ProductName:       product.Name,
			ProductPrice:      product.Price,
			ProductQty:        params.ProductQty,
			ProductService:    product.ServiceName,
			PaymentMethodID:   method.ID,
			PaymentName:       method.Name,
			PaymentMethodType: method.Type,
			ProviderID:        method.ProviderID,
			Fees:              fees,
			Price:             price,
			TotalPrice:        totalPrice,
			OrderStatus:       OrderPending,
			PaidStatus:        PaidPending,
			ExpiredAt:         expiredAt,
		}

		if err := tx.CreateTransaction(ctx, trx); err != nil {
			return fmt.Errorf("creating transaction: %w", err)
		}

		receipt, err := s.gateway.CreatePayment(ctx, PaymentRequest{
			Amount:      trx.TotalPrice,
			Description: trx.ProductName,
			ProviderID:  method.ProviderID,
			Provider:    method.Provider,
			TrxID:       trx.ID,
			Phone:       params.Phone,
		})
		if err != nil {
			return fmt.Errorf("creating payment: %w", err)
		}

		// Computed once, never revisited.
		profit := receipt.Amount - receipt.Fee - product.PriceFromProvider*int64(params.ProductQty)

		final, err := tx.FinalizeTransaction(ctx, trx.ID, FinalizePatch{
			ExpiredAt:     receipt.Expired,
			Fees:          receipt.Fee + fees,
			Profit:        profit,
			TotalPrice:    receipt.Amount,
			PaymentNumber: receipt.PayCode,
			IsQrcode:      receipt.IsQrcode,
			LinkPayment:   receipt.LinkPayment,
			QrData:        receipt.QrData,
			PaymentRef:    receipt.Ref,
		})
		if err != nil {
			// The provider-side payment escaped the rollback boundary.
			if cancelErr := s.gateway.CancelPayment(ctx, CancelRequest{TrxID: trx.ID, Provider: method.Provider}); cancelErr != nil {
				slog.Error("payment compensation failed, reconciliation required",
					"step", "finalize", "trx_id", trx.ID, "provider", method.Provider, "error", cancelErr)
			}

			return fmt.Errorf("finalizing transaction: %w", err)
		}

		result = final

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Cancel aborts a still-pending transaction. A nil userID skips the
// ownership filter (admin/service context). The provider-side cancel runs
// before the local status write, so a failed write leaves the two systems
// diverged; that divergence is logged for reconciliation.
func (s *Service) Cancel(ctx context.Context, userID *uuid.UUID, trxID string) error {
	trx, err := s.store.GetPendingTransaction(ctx, trxID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("fetching transaction: %w", err)
	}

	if trx.PaidStatus != PaidPending {
		return ErrAlreadyPaid
	}

	if trx.PaymentMethod == nil {
		return fmt.Errorf("transaction %s has no payment method loaded", trx.ID)
	}

	if err := s.gateway.CancelPayment(ctx, CancelRequest{TrxID: trx.ID, Provider: trx.PaymentMethod.Provider}); err != nil {
		slog.Error("cancel payment failed", "step", "gateway_cancel", "trx_id", trx.ID, "error", err)
		return ErrCancelPayment
	}

	if err := s.store.UpdateStatus(ctx, trx.ID, OrderCancelled, PaidCancelled); err != nil {
		slog.Error("remote payment cancelled but local status write failed, reconciliation required",
			"step", "status_update", "trx_id", trx.ID, "error", err)

		return ErrCancelTransaction
	}

	return nil
}

type ListFilter struct {
	PaidStatus  *PaidStatus
	OrderStatus *OrderStatus
	TrxID       *string
	UserID      *uuid.UUID
}

type ListResult struct {
	Count        int
	TotalPage    int
	Transactions []*Transaction
}

func (s *Service) List(ctx context.Context, filter ListFilter, page, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = 10
	}

	count, err := s.store.CountTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}

	txs, err := s.store.ListTransactions(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return &ListResult{
		Count:        count,
		TotalPage:    (count + limit - 1) / limit,
		Transactions: txs,
	}, nil
}
