package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/graceseason/storefront/internal/pkg/circuitbreaker"
	"github.com/graceseason/storefront/internal/storefront/core/checkout"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
	"github.com/graceseason/storefront/internal/storefront/infra/adapters/httpclient"
)

const (
	serviceName     = "shopify"
	productPageSize = 250
)

var _ ports.CommercePlatform = (*Client)(nil)

type Config struct {
	StoreDomain string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
	// BaseURL overrides https://{StoreDomain}.
	BaseURL string
}

// Client talks to the Shopify Admin REST API.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.Breaker[[]byte]
}

func NewClient(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = httpclient.New()
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://" + cfg.StoreDomain
	}
	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(base, "/") + "/admin/api/" + cfg.APIVersion,
		http:    hc,
		breaker: httpclient.NewBreaker(serviceName),
	}
}

type orderEnvelope struct {
	Order *entity.CommerceOrder `json:"order"`
}

type createdOrder struct {
	Order struct {
		ID          int64 `json:"id"`
		OrderNumber int64 `json:"order_number"`
	} `json:"order"`
}

type productList struct {
	Products []struct {
		ProductType string `json:"product_type"`
	} `json:"products"`
}

func (c *Client) CreateOrder(ctx context.Context, order *entity.CommerceOrder) (*entity.PlacedOrder, error) {
	body, err := json.Marshal(orderEnvelope{Order: order})
	if err != nil {
		return nil, fmt.Errorf("marshal shopify order: %w", err)
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, http.MethodPost, "/orders.json", body)
	})
	if err != nil {
		err = httpclient.Classify(serviceName, err)
		slog.ErrorContext(ctx, "shopify create order failed", "tags", order.Tags, "error", err)
		return nil, err
	}

	var created createdOrder
	if err := json.Unmarshal(raw, &created); err != nil || created.Order.ID == 0 {
		slog.ErrorContext(ctx, "unreadable shopify order response", "tags", order.Tags, "error", err)
		return nil, &checkout.UpstreamError{Service: serviceName, Detail: "Invalid response from commerce platform"}
	}

	slog.InfoContext(ctx, "shopify order created", "order_id", created.Order.ID, "order_number", created.Order.OrderNumber)
	return &entity.PlacedOrder{
		OrderID:     created.Order.ID,
		OrderNumber: created.Order.OrderNumber,
	}, nil
}

// ListProductTypes returns the sorted distinct non-empty product types of
// the first page of products.
func (c *Client) ListProductTypes(ctx context.Context) ([]string, error) {
	path := fmt.Sprintf("/products.json?fields=product_type&limit=%d", productPageSize)
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, http.MethodGet, path, nil)
	})
	if err != nil {
		return nil, httpclient.Classify(serviceName, err)
	}

	var list productList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, &checkout.UpstreamError{Service: serviceName, Detail: "Invalid response from commerce platform"}
	}

	seen := make(map[string]struct{}, len(list.Products))
	types := make([]string, 0, len(list.Products))
	for _, p := range list.Products {
		t := strings.TrimSpace(p.ProductType)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := c.http.Do(req)
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
			Detail:     describe(raw),
		}
	}
	return raw, nil
}

// describe returns the JSON of the "errors" member, the whole JSON body
// when there is none, or the raw body when it is not JSON.
func describe(raw []byte) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return string(raw)
	}
	if errs, ok := body["errors"]; ok {
		var buf bytes.Buffer
		if json.Compact(&buf, errs) == nil {
			return buf.String()
		}
		return string(errs)
	}
	var buf bytes.Buffer
	if json.Compact(&buf, raw) == nil {
		return buf.String()
	}
	return string(raw)
}
