package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/graceseason/storefront/internal/pkg/cache"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
)

const (
	categoriesKey = "all"
	categoriesTTL = 5 * time.Minute
)

// Categories lists product categories from the commerce platform, cached
// for a few minutes.
type Categories struct {
	commerce ports.CommercePlatform
	cache    cache.Cache
	sfg      singleflight.Group // one upstream fetch per cache miss
}

func NewCategories(commerce ports.CommercePlatform, c cache.Cache) *Categories {
	return &Categories{commerce: commerce, cache: c}
}

func (s *Categories) List(ctx context.Context) ([]string, error) {
	v, err, _ := s.sfg.Do(categoriesKey, func() (any, error) {
		key := s.cache.GenerateKey("categories", categoriesKey)

		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			var cached []string
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			slog.WarnContext(ctx, "categories cache get failed", "error", err)
		}

		types, err := s.commerce.ListProductTypes(ctx)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "fetched categories", "count", len(types))

		if raw, err := json.Marshal(types); err == nil {
			if err := s.cache.Set(ctx, key, raw, categoriesTTL); err != nil {
				slog.WarnContext(ctx, "categories cache set failed", "error", err)
			}
		}
		return types, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}
