package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graceseason/storefront/internal/pkg/cache"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
)

type mockCommerce struct {
	calls atomic.Int32
	types []string
	err   error
	delay time.Duration
}

func (m *mockCommerce) CreateOrder(context.Context, *entity.CommerceOrder) (*entity.PlacedOrder, error) {
	return nil, errors.New("not used")
}

func (m *mockCommerce) ListProductTypes(context.Context) ([]string, error) {
	m.calls.Add(1)
	time.Sleep(m.delay)
	if m.err != nil {
		return nil, m.err
	}
	return m.types, nil
}

func setup(t *testing.T, commerce *mockCommerce) (*Categories, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCategories(commerce, cache.NewRedisCache(client, "storefront")), mr
}

func TestList_CachesResult(t *testing.T) {
	commerce := &mockCommerce{types: []string{"Dresses", "Jackets"}}
	svc, mr := setup(t, commerce)
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dresses", "Jackets"}, first)
	assert.True(t, mr.Exists("storefront:categories:all"))

	second, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, commerce.calls.Load())

	mr.FastForward(6 * time.Minute)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, commerce.calls.Load())
}

func TestList_ConcurrentMissesShareOneFetch(t *testing.T) {
	commerce := &mockCommerce{types: []string{"Shoes"}, delay: 50 * time.Millisecond}
	svc, _ := setup(t, commerce)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			types, err := svc.List(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, []string{"Shoes"}, types)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, commerce.calls.Load())
}

func TestList_UpstreamErrorNotCached(t *testing.T) {
	commerce := &mockCommerce{err: errors.New("shopify down")}
	svc, mr := setup(t, commerce)

	_, err := svc.List(context.Background())
	require.Error(t, err)
	assert.False(t, mr.Exists("storefront:categories:all"))
}
