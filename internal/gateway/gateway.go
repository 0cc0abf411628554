// Package gateway adapts external payment providers to the checkout core.
// Each provider is one Client; the Gateway routes by the payment method's
// provider.
package gateway

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/MrJamesThe3rd/checkout/internal/catalog"
	"github.com/MrJamesThe3rd/checkout/internal/checkout"
)

type Client interface {
	CreatePayment(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentReceipt, error)
	CancelPayment(ctx context.Context, req checkout.CancelRequest) error
}

type Gateway struct {
	clients map[catalog.Provider]Client
}

func New() *Gateway {
	return &Gateway{clients: make(map[catalog.Provider]Client)}
}

func (g *Gateway) Register(provider catalog.Provider, client Client) {
	g.clients[provider] = client
}

func (g *Gateway) CreatePayment(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentReceipt, error) {
	client, ok := g.clients[req.Provider]
	if !ok {
		return nil, fmt.Errorf("no client registered for provider %s", req.Provider)
	}

	return client.CreatePayment(ctx, req)
}

func (g *Gateway) CancelPayment(ctx context.Context, req checkout.CancelRequest) error {
	client, ok := g.clients[req.Provider]
	if !ok {
		return fmt.Errorf("no client registered for provider %s", req.Provider)
	}

	return client.CancelPayment(ctx, req)
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
