package checkout

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/checkout/internal/catalog"
	"github.com/MrJamesThe3rd/checkout/internal/checkout"
)

// envelope mirrors the status/message/data shape the storefront clients
// already consume.
type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, code int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type transactionResponse struct {
	ID                string             `json:"id"`
	UserID            uuid.UUID          `json:"userId"`
	ProductID         uuid.UUID          `json:"productId"`
	ProductName       string             `json:"productName"`
	ProductPrice      int64              `json:"productPrice"`
	ProductQty        int                `json:"productQty"`
	ProductService    string             `json:"productService"`
	PaymentMethodID   uuid.UUID          `json:"paymentMethodId"`
	PaymentName       string             `json:"paymentName"`
	PaymentMethodType catalog.MethodType `json:"paymentMethodType"`
	Fees              int64              `json:"fees"`
	Price             int64              `json:"price"`
	TotalPrice        int64              `json:"totalPrice"`
	OrderStatus       checkout.OrderStatus `json:"orderStatus"`
	PaidStatus        checkout.PaidStatus  `json:"paidStatus"`
	PaymentNumber     string             `json:"paymentNumber,omitempty"`
	IsQrcode          bool               `json:"isQrcode"`
	LinkPayment       string             `json:"linkPayment,omitempty"`
	QrData            string             `json:"qrData,omitempty"`
	PaymentRef        string             `json:"paymentRef,omitempty"`
	ExpiredAt         time.Time          `json:"expiredAt"`
	CreatedAt         time.Time          `json:"createdAt"`
	PaymentMethod     *methodResponse    `json:"paymentMethod,omitempty"`
}

type methodResponse struct {
	ID       uuid.UUID          `json:"id"`
	Provider catalog.Provider   `json:"provider"`
	Type     catalog.MethodType `json:"type"`
	Name     string             `json:"name"`
}

func toResponse(trx *checkout.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:                trx.ID,
		UserID:            trx.UserID,
		ProductID:         trx.ProductID,
		ProductName:       trx.ProductName,
		ProductPrice:      trx.ProductPrice,
		ProductQty:        trx.ProductQty,
		ProductService:    trx.ProductService,
		PaymentMethodID:   trx.PaymentMethodID,
		PaymentName:       trx.PaymentName,
		PaymentMethodType: trx.PaymentMethodType,
		Fees:              trx.Fees,
		Price:             trx.Price,
		TotalPrice:        trx.TotalPrice,
		OrderStatus:       trx.OrderStatus,
		PaidStatus:        trx.PaidStatus,
		PaymentNumber:     trx.PaymentNumber,
		IsQrcode:          trx.IsQrcode,
		LinkPayment:       trx.LinkPayment,
		QrData:            trx.QrData,
		PaymentRef:        trx.PaymentRef,
		ExpiredAt:         trx.ExpiredAt,
		CreatedAt:         trx.CreatedAt,
	}

	if trx.PaymentMethod != nil {
		resp.PaymentMethod = &methodResponse{
			ID:       trx.PaymentMethod.ID,
			Provider: trx.PaymentMethod.Provider,
			Type:     trx.PaymentMethod.Type,
			Name:     trx.PaymentMethod.Name,
		}
	}

	return resp
}

type listResponse struct {
	Count        int                   `json:"count"`
	TotalPage    int                   `json:"totalPage"`
	Transactions []transactionResponse `json:"transactions"`
}

func toListResponse(result *checkout.ListResult) listResponse {
	txs := make([]transactionResponse, len(result.Transactions))
	for i, trx := range result.Transactions {
		txs[i] = toResponse(trx)
	}

	return listResponse{
		Count:        result.Count,
		TotalPage:    result.TotalPage,
		Transactions: txs,
	}
}
