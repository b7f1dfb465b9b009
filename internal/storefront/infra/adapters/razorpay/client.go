package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/graceseason/storefront/internal/pkg/circuitbreaker"
	"github.com/graceseason/storefront/internal/storefront/core/checkout"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
	"github.com/graceseason/storefront/internal/storefront/infra/adapters/httpclient"
)

const serviceName = "razorpay"

// Ensure Client implements the port at compile time.
var _ ports.PaymentGateway = (*Client)(nil)

type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// Client creates orders through the Razorpay Orders API. Each call is a
// single attempt bounded by Config.Timeout.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *circuitbreaker.Breaker[[]byte]
}

func NewClient(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = httpclient.New()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:     cfg,
		http:    hc,
		breaker: httpclient.NewBreaker(serviceName),
	}
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) CreateOrder(ctx context.Context, req ports.CreateIntentRequest) (*entity.PaymentIntent, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:         req.Amount,
		Currency:       req.Currency,
		Receipt:        req.Receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal razorpay order: %w", err)
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, "/v1/orders", body)
	})
	if err != nil {
		err = httpclient.Classify(serviceName, err)
		slog.ErrorContext(ctx, "razorpay create order failed", "receipt", req.Receipt, "error", err)
		return nil, err
	}

	intent, err := entity.ParsePaymentIntent(raw)
	if err != nil || intent.ID == "" {
		slog.ErrorContext(ctx, "unreadable razorpay order response", "receipt", req.Receipt, "error", err)
		return nil, &checkout.UpstreamError{Service: serviceName, Detail: "Invalid response from payment gateway"}
	}
	return intent, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &checkout.UpstreamError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Detail:     describe(resp.StatusCode, raw),
		}
	}
	return raw, nil
}

// describe prefers the gateway's error.description.
func describe(status int, raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil {
		if er.Error.Description != "" {
			return er.Error.Description
		}
		return fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return fmt.Sprintf("HTTP %d: %s", status, string(raw))
}
