package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// Provider identifies the external payment provider behind a payment method.
type Provider string

const (
	ProviderPaydisini Provider = "PAYDISINI"
	ProviderDuitku    Provider = "DUITKU"
)

// MethodType classifies how the buyer hands over the money.
type MethodType string

const (
	MethodTransferBank    MethodType = "TRANSFER_BANK"
	MethodTransferEwallet MethodType = "TRANSFER_EWALLET"
	MethodDirectEwallet   MethodType = "DIRECT_EWALLET"
	MethodVirtualAccount  MethodType = "VIRTUAL_ACCOUNT"
	MethodRetailOutlet    MethodType = "RETAIL_OUTLET"
	MethodCreditCard      MethodType = "CREDIT_CARD"
	MethodLinkPayment     MethodType = "LINK_PAYMENT"
	MethodOther           MethodType = "OTHER"
)

// PaymentMethod is a channel offered at checkout. Fees is a flat amount in
// rupiah, FeesInPercent a percentage of the product price; both apply.
// MinAmount and MaxAmount are exclusive bounds on the total price.
type PaymentMethod struct {
	ID            uuid.UUID
	ProviderID    string
	Provider      Provider
	Type          MethodType
	Name          string
	Desc          string
	Fees          int64
	FeesInPercent float64
	MinAmount     int64
	MaxAmount     int64
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// Product is a sellable item. PriceFromProvider is what the upstream
// supplier charges us for one unit.
type Product struct {
	ID                uuid.UUID
	Name              string
	Price             int64
	PriceFromProvider int64
	Stock             int
	IsAvailable       bool
	ServiceName       string
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}
