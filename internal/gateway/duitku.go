package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/checkout/internal/checkout"
)

const duitkuExpiryMinutes = 120

// DuitkuClient talks to the Duitku merchant API: JSON requests, MD5
// signature over merchantCode+orderId+amount+apiKey.
type DuitkuClient struct {
	client       *http.Client
	baseURL      string
	merchantCode string
	apiKey       string
}

func NewDuitku(baseURL, merchantCode, apiKey string) *DuitkuClient {
	return &DuitkuClient{
		client:       &http.Client{Timeout: 30 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		merchantCode: merchantCode,
		apiKey:       apiKey,
	}
}

type duitkuInquiryRequest struct {
	MerchantCode    string `json:"merchantCode"`
	PaymentAmount   int64  `json:"paymentAmount"`
	PaymentMethod   string `json:"paymentMethod"`
	MerchantOrderID string `json:"merchantOrderId"`
	ProductDetails  string `json:"productDetails"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	ExpiryPeriod    int    `json:"expiryPeriod"`
	Signature       string `json:"signature"`
}

type duitkuInquiryResponse struct {
	StatusCode    string      `json:"statusCode"`
	StatusMessage string      `json:"statusMessage"`
	Reference     string      `json:"reference"`
	PaymentURL    string      `json:"paymentUrl"`
	VaNumber      string      `json:"vaNumber"`
	QrString      string      `json:"qrString"`
	Amount        json.Number `json:"amount"`
	Fee           json.Number `json:"fee"`
}

func (c *DuitkuClient) CreatePayment(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentReceipt, error) {
	signature := md5hex(c.merchantCode + req.TrxID + strconv.FormatInt(req.Amount, 10) + c.apiKey)

	var body duitkuInquiryResponse

	err := c.post(ctx, "/webapi/api/merchant/v2/inquiry", duitkuInquiryRequest{
		MerchantCode:    c.merchantCode,
		PaymentAmount:   req.Amount,
		PaymentMethod:   req.ProviderID,
		MerchantOrderID: req.TrxID,
		ProductDetails:  req.Description,
		PhoneNumber:     req.Phone,
		ExpiryPeriod:    duitkuExpiryMinutes,
		Signature:       signature,
	}, &body)
	if err != nil {
		return nil, err
	}

	if body.StatusCode != "00" {
		return nil, fmt.Errorf("duitku rejected payment: %s %s", body.StatusCode, body.StatusMessage)
	}

	amount, err := body.Amount.Int64()
	if err != nil {
		return nil, fmt.Errorf("parsing duitku amount %q: %w", body.Amount, err)
	}

	fee, err := body.Fee.Int64()
	if err != nil {
		return nil, fmt.Errorf("parsing duitku fee %q: %w", body.Fee, err)
	}

	return &checkout.PaymentReceipt{
		Amount:      amount,
		Fee:         fee,
		Expired:     time.Now().Add(duitkuExpiryMinutes * time.Minute),
		PayCode:     body.VaNumber,
		IsQrcode:    body.QrString != "",
		LinkPayment: body.PaymentURL,
		QrData:      body.QrString,
		Ref:         body.Reference,
	}, nil
}

type duitkuCancelRequest struct {
	MerchantCode    string `json:"merchantCode"`
	MerchantOrderID string `json:"merchantOrderId"`
	Signature       string `json:"signature"`
}

type duitkuCancelResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

func (c *DuitkuClient) CancelPayment(ctx context.Context, req checkout.CancelRequest) error {
	var body duitkuCancelResponse

	err := c.post(ctx, "/webapi/api/merchant/cancel", duitkuCancelRequest{
		MerchantCode:    c.merchantCode,
		MerchantOrderID: req.TrxID,
		Signature:       md5hex(c.merchantCode + req.TrxID + c.apiKey),
	}, &body)
	if err != nil {
		return err
	}

	if body.StatusCode != "00" {
		return fmt.Errorf("duitku rejected cancel: %s %s", body.StatusCode, body.StatusMessage)
	}

	return nil
}

func (c *DuitkuClient) post(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from duitku", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
