package checkout

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/checkout/internal/catalog"
)

// Business rejections. These are expected outcomes returned as values and
// translated to status/message envelopes at the HTTP boundary.
var (
	ErrMethodUnavailable  = errors.New("payment method not available")
	ErrProductUnavailable = errors.New("product not available")
	ErrStockEmpty         = errors.New("product stock is empty")
	ErrAmountOutOfRange   = errors.New("total price outside payment method bounds")
	ErrNotFound           = errors.New("transaction not found")
	ErrAlreadyPaid        = errors.New("transaction already paid")
	ErrCancelPayment      = errors.New("failed to cancel payment")
	ErrCancelTransaction  = errors.New("failed to cancel transaction")
)

// ErrIDExhausted is an infrastructure fault: the generator could not find an
// unused transaction id within its attempt budget.
var ErrIDExhausted = errors.New("transaction id generation exhausted")

// OrderStatus is the fulfilment side of a transaction's lifecycle.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderExpired   OrderStatus = "EXPIRED"
)

// PaidStatus is the payment side of a transaction's lifecycle.
type PaidStatus string

const (
	PaidPending   PaidStatus = "PENDING"
	PaidPaid      PaidStatus = "PAID"
	PaidCancelled PaidStatus = "CANCELLED"
	PaidExpired   PaidStatus = "EXPIRED"
)

// PENDING is the only non-terminal state on either axis.
var (
	orderTransitions = map[OrderStatus][]OrderStatus{
		OrderPending: {OrderCompleted, OrderCancelled, OrderExpired},
	}
	paidTransitions = map[PaidStatus][]PaidStatus{
		PaidPending: {PaidPaid, PaidCancelled, PaidExpired},
	}
)

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}

	return false
}

func (s PaidStatus) CanTransition(to PaidStatus) bool {
	for _, next := range paidTransitions[s] {
		if next == to {
			return true
		}
	}

	return false
}

// Transaction is one purchase tracked from creation to a terminal state.
// Amounts are rupiah. Gateway-derived fields are empty until the provider
// accepts the payment request.
type Transaction struct {
	ID     string
	UserID uuid.UUID

	ProductID      uuid.UUID
	ProductName    string
	ProductPrice   int64
	ProductQty     int
	ProductService string

	PaymentMethodID   uuid.UUID
	PaymentName       string
	PaymentMethodType catalog.MethodType
	ProviderID        string

	Fees       int64
	Price      int64
	TotalPrice int64
	Profit     int64

	OrderStatus OrderStatus
	PaidStatus  PaidStatus

	PaymentNumber string
	IsQrcode      bool
	LinkPayment   string
	QrData        string
	PaymentRef    string

	ExpiredAt time.Time
	CreatedAt time.Time
	UpdatedAt *time.Time

	PaymentMethod *catalog.PaymentMethod // Loaded via JOIN
}
