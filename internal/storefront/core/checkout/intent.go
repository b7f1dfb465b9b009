package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/graceseason/storefront/internal/pkg/cache"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
)

const intentCacheTTL = 15 * time.Minute

// IntentCreator creates payment-gateway orders for a checkout amount.
type IntentCreator struct {
	gateway  ports.PaymentGateway
	cache    cache.Cache // nil disables idempotency-key replay
	currency string
	now      func() time.Time
}

func NewIntentCreator(gateway ports.PaymentGateway, c cache.Cache, currency string) *IntentCreator {
	return &IntentCreator{
		gateway:  gateway,
		cache:    c,
		currency: currency,
		now:      time.Now,
	}
}

// Create converts amount (major units) to minor units and creates a gateway
// order. A nil or non-positive amount is rejected before any gateway call.
// When idempotencyKey is set, a previously created intent for the same key,
// amount and currency is returned instead of creating another one.
func (c *IntentCreator) Create(ctx context.Context, amount *decimal.Decimal, idempotencyKey string) (*entity.PaymentIntent, error) {
	if amount == nil || !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	minor, err := ToMinorUnits(*amount)
	if err != nil || minor <= 0 {
		return nil, ErrInvalidAmount
	}

	cacheKey := c.intentKey(idempotencyKey, minor)
	if cached := c.cached(ctx, cacheKey, minor); cached != nil {
		slog.InfoContext(ctx, "returning cached payment intent", "intent_id", cached.ID, "idempotency_key", idempotencyKey)
		return cached, nil
	}

	req := ports.CreateIntentRequest{
		Amount:   minor,
		Currency: c.currency,
		Receipt:  fmt.Sprintf("receipt_%d", c.now().UnixMilli()),
	}
	slog.InfoContext(ctx, "creating payment intent", "amount_minor", req.Amount, "currency", req.Currency, "receipt", req.Receipt)

	intent, err := c.gateway.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "payment intent created", "intent_id", intent.ID)
	c.remember(ctx, cacheKey, intent)
	return intent, nil
}

// intentKey scopes the client key to the charged amount so that reusing a
// key for a different cart never replays the old intent. It is "" when
// replay is disabled.
func (c *IntentCreator) intentKey(idempotencyKey string, minor int64) string {
	if c.cache == nil || idempotencyKey == "" {
		return ""
	}
	return c.cache.GenerateKey("intent", fmt.Sprintf("%s:%s:%d", idempotencyKey, c.currency, minor))
}

func (c *IntentCreator) cached(ctx context.Context, key string, minor int64) *entity.PaymentIntent {
	if key == "" {
		return nil
	}
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			slog.WarnContext(ctx, "intent cache get failed", "error", err)
		}
		return nil
	}
	intent, err := entity.ParsePaymentIntent(raw)
	if err != nil {
		slog.WarnContext(ctx, "discarding unreadable cached intent", "error", err)
		return nil
	}
	if intent.Amount != minor || (intent.Currency != "" && intent.Currency != c.currency) {
		slog.WarnContext(ctx, "discarding cached intent with different amount", "intent_id", intent.ID, "cached_amount", intent.Amount, "amount_minor", minor)
		return nil
	}
	return intent
}

func (c *IntentCreator) remember(ctx context.Context, key string, intent *entity.PaymentIntent) {
	if key == "" || len(intent.Raw) == 0 {
		return
	}
	if err := c.cache.Set(ctx, key, intent.Raw, intentCacheTTL); err != nil {
		slog.WarnContext(ctx, "intent cache set failed", "error", err)
	}
}
