package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/checkout/internal/checkout"
)

const paydisiniExpirySeconds = 7200

// PaydisiniClient talks to the Paydisini merchant API: form-encoded
// requests against a single endpoint, MD5 signatures, JSON envelopes with a
// success flag.
type PaydisiniClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewPaydisini(baseURL, apiKey string) *PaydisiniClient {
	return &PaydisiniClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type paydisiniEnvelope struct {
	Success bool           `json:"success"`
	Msg     string         `json:"msg"`
	Data    *paydisiniData `json:"data"`
}

type paydisiniData struct {
	UniqueCode     string      `json:"unique_code"`
	PayID          string      `json:"pay_id"`
	Amount         json.Number `json:"amount"`
	Fee            json.Number `json:"fee"`
	Expired        string      `json:"expired"`
	VirtualAccount string      `json:"virtual_account"`
	CheckoutURL    string      `json:"checkout_url"`
	QrContent      string      `json:"qr_content"`
}

func (c *PaydisiniClient) CreatePayment(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentReceipt, error) {
	amount := strconv.FormatInt(req.Amount, 10)
	validTime := strconv.Itoa(paydisiniExpirySeconds)

	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("request", "new")
	form.Set("unique_code", req.TrxID)
	form.Set("service", req.ProviderID)
	form.Set("amount", amount)
	form.Set("note", req.Description)
	form.Set("valid_time", validTime)
	form.Set("type_fee", "1")
	form.Set("signature", md5hex(c.apiKey+req.TrxID+req.ProviderID+amount+validTime+"NewTransaction"))

	if req.Phone != "" {
		form.Set("phone_number", req.Phone)
	}

	data, err := c.call(ctx, form)
	if err != nil {
		return nil, err
	}

	grossAmount, err := data.Amount.Int64()
	if err != nil {
		return nil, fmt.Errorf("parsing paydisini amount %q: %w", data.Amount, err)
	}

	fee, err := data.Fee.Int64()
	if err != nil {
		return nil, fmt.Errorf("parsing paydisini fee %q: %w", data.Fee, err)
	}

	expired, err := time.Parse(time.DateTime, data.Expired)
	if err != nil {
		return nil, fmt.Errorf("parsing paydisini expiry %q: %w", data.Expired, err)
	}

	return &checkout.PaymentReceipt{
		Amount:      grossAmount,
		Fee:         fee,
		Expired:     expired,
		PayCode:     data.VirtualAccount,
		IsQrcode:    data.QrContent != "",
		LinkPayment: data.CheckoutURL,
		QrData:      data.QrContent,
		Ref:         data.PayID,
	}, nil
}

func (c *PaydisiniClient) CancelPayment(ctx context.Context, req checkout.CancelRequest) error {
	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("request", "cancel")
	form.Set("unique_code", req.TrxID)
	form.Set("signature", md5hex(c.apiKey+req.TrxID+"CancelTransaction"))

	_, err := c.call(ctx, form)

	return err
}

func (c *PaydisiniClient) call(ctx context.Context, form url.Values) (*paydisiniData, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from paydisini", resp.StatusCode)
	}

	var envelope paydisiniEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if !envelope.Success {
		return nil, fmt.Errorf("paydisini rejected request: %s", envelope.Msg)
	}

	return envelope.Data, nil
}
