package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/checkout/internal/catalog"
	"github.com/MrJamesThe3rd/checkout/internal/checkout"
)

func TestDuitku_CreatePayment(t *testing.T) {
	const (
		merchantCode = "D1234"
		apiKey       = "test-key"
		trxID        = "1698400000000A1B2C3D4E5F60708"
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/webapi/api/merchant/v2/inquiry", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, merchantCode, req["merchantCode"])
		assert.Equal(t, float64(21000), req["paymentAmount"])
		assert.Equal(t, "VC", req["paymentMethod"])
		assert.Equal(t, trxID, req["merchantOrderId"])
		assert.Equal(t, "100 Diamonds", req["productDetails"])
		assert.Equal(t, float64(120), req["expiryPeriod"])
		assert.Equal(t, md5hex(merchantCode+trxID+"21000"+apiKey), req["signature"])

		w.Write([]byte(`{
			"statusCode": "00",
			"statusMessage": "SUCCESS",
			"reference": "DK98765",
			"paymentUrl": "https://sandbox.duitku.com/payment/DK98765",
			"vaNumber": "7007123456",
			"amount": "21000",
			"fee": "400"
		}`))
	}))
	defer server.Close()

	client := NewDuitku(server.URL, merchantCode, apiKey)

	before := time.Now()

	receipt, err := client.CreatePayment(context.Background(), checkout.PaymentRequest{
		Amount:      21000,
		Description: "100 Diamonds",
		ProviderID:  "VC",
		Provider:    catalog.ProviderDuitku,
		TrxID:       trxID,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(21000), receipt.Amount)
	assert.Equal(t, int64(400), receipt.Fee)
	assert.Equal(t, "7007123456", receipt.PayCode)
	assert.Equal(t, "DK98765", receipt.Ref)
	assert.Equal(t, "https://sandbox.duitku.com/payment/DK98765", receipt.LinkPayment)
	assert.False(t, receipt.IsQrcode)

	// Duitku reports no absolute deadline; the client derives one from the
	// requested expiry period.
	assert.WithinRange(t, receipt.Expired, before.Add(120*time.Minute), time.Now().Add(120*time.Minute))
}

func TestDuitku_CreatePayment_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"statusCode": "02", "statusMessage": "Merchant not found"}`))
	}))
	defer server.Close()

	client := NewDuitku(server.URL, "D1", "k")

	receipt, err := client.CreatePayment(context.Background(), checkout.PaymentRequest{Amount: 10000, TrxID: "t"})
	assert.ErrorContains(t, err, "Merchant not found")
	assert.Nil(t, receipt)
}

func TestDuitku_CancelPayment(t *testing.T) {
	const (
		merchantCode = "D1234"
		apiKey       = "test-key"
		trxID        = "1698400000000A1B2C3D4E5F60708"
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/webapi/api/merchant/cancel", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, trxID, req["merchantOrderId"])
		assert.Equal(t, md5hex(merchantCode+trxID+apiKey), req["signature"])

		w.Write([]byte(`{"statusCode": "00", "statusMessage": "SUCCESS"}`))
	}))
	defer server.Close()

	client := NewDuitku(server.URL, merchantCode, apiKey)

	err := client.CancelPayment(context.Background(), checkout.CancelRequest{TrxID: trxID, Provider: catalog.ProviderDuitku})
	assert.NoError(t, err)
}

func TestGateway_RoutesByProvider(t *testing.T) {
	g := New()

	_, err := g.CreatePayment(context.Background(), checkout.PaymentRequest{Provider: catalog.ProviderDuitku})
	assert.ErrorContains(t, err, "no client registered")

	err = g.CancelPayment(context.Background(), checkout.CancelRequest{Provider: catalog.ProviderPaydisini})
	assert.ErrorContains(t, err, "no client registered")
}
