package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/graceseason/storefront/internal/coordinator/finalizelog"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Mocks ---

type memRepo struct {
	mu      sync.Mutex
	records []*finalizelog.Record
	saveErr error
}

func (m *memRepo) Save(_ context.Context, rec *finalizelog.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memRepo) History(_ context.Context, paymentID string) ([]*finalizelog.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*finalizelog.Record
	for _, r := range m.records {
		if r.PaymentID == paymentID {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, finalizelog.ErrNotFound
	}
	return out, nil
}

func (m *memRepo) GetLatest(ctx context.Context, paymentID string) (*finalizelog.Record, error) {
	h, err := m.History(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return h[len(h)-1], nil
}

func (m *memRepo) ListPending(context.Context, int) ([]*finalizelog.Record, error) {
	return nil, nil
}

func (m *memRepo) statuses(paymentID string) []finalizelog.Status {
	h, _ := m.History(context.Background(), paymentID)
	out := make([]finalizelog.Status, 0, len(h))
	for _, r := range h {
		out = append(out, r.Status)
	}
	return out
}

type fakeCommerce struct {
	mu     sync.Mutex
	calls  int
	placed *entity.PlacedOrder
	err    error
}

func (f *fakeCommerce) CreateOrder(_ context.Context, _ *entity.CommerceOrder) (*entity.PlacedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p := *f.placed
	return &p, nil
}

func (f *fakeCommerce) ListProductTypes(context.Context) ([]string, error) {
	return nil, nil
}

type fakePublisher struct {
	events []ports.OrderPlacedEvent
	err    error
}

func (f *fakePublisher) PublishOrderPlaced(_ context.Context, e ports.OrderPlacedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func testPayload() *Payload {
	return &Payload{
		PaymentID:      "pay_1",
		GatewayOrderID: "order_1",
		Order: entity.CommerceOrder{
			LineItems:  []entity.CommerceLineItem{{Title: "Jacket", Price: "10.50", Quantity: 2}},
			TotalPrice: "21.00",
			Currency:   "GHS",
		},
	}
}

// --- Tests ---

func TestRun_Success(t *testing.T) {
	repo := &memRepo{}
	commerce := &fakeCommerce{placed: &entity.PlacedOrder{OrderID: 42, OrderNumber: 1001}}
	pub := &fakePublisher{}
	p := NewPipeline(repo, commerce, pub)

	placed, err := p.Run(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, int64(42), placed.OrderID)
	assert.Equal(t, int64(1001), placed.OrderNumber)
	assert.Equal(t, "pay_1", placed.PaymentID)

	assert.Equal(t, []finalizelog.Status{
		finalizelog.StatusStarted,
		finalizelog.StatusStepDone,
		finalizelog.StatusStepDone,
		finalizelog.StatusCompleted,
	}, repo.statuses("pay_1"))

	require.Len(t, pub.events, 1)
	assert.Equal(t, "order_1", pub.events[0].GatewayOrderID)
	assert.Equal(t, "21.00", pub.events[0].TotalPrice)
	assert.Equal(t, 1, pub.events[0].ItemCount)

	started := repo.records[0]
	assert.Contains(t, started.Payload, `"gateway_order_id":"order_1"`)
}

func TestRun_PendingRecordWrittenBeforeSubmit(t *testing.T) {
	repo := &memRepo{saveErr: errors.New("disk full")}
	commerce := &fakeCommerce{placed: &entity.PlacedOrder{OrderID: 42}}
	p := NewPipeline(repo, commerce, &fakePublisher{})

	_, err := p.Run(context.Background(), testPayload())
	require.Error(t, err)
	assert.Equal(t, 0, commerce.calls)
}

func TestRun_CommerceFailure(t *testing.T) {
	repo := &memRepo{}
	commerce := &fakeCommerce{err: errors.New("shopify down")}
	pub := &fakePublisher{}
	p := NewPipeline(repo, commerce, pub)

	_, err := p.Run(context.Background(), testPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shopify down")
	assert.Empty(t, pub.events)

	latest, err := repo.GetLatest(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, finalizelog.StatusFailed, latest.Status)
	assert.Equal(t, StepSubmitOrder, latest.CurrentStep)
	require.Len(t, latest.Errors(), 1)
}

func TestRun_PublishFailureIsBestEffort(t *testing.T) {
	repo := &memRepo{}
	commerce := &fakeCommerce{placed: &entity.PlacedOrder{OrderID: 42, OrderNumber: 1001}}
	p := NewPipeline(repo, commerce, &fakePublisher{err: errors.New("broker down")})

	placed, err := p.Run(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, int64(42), placed.OrderID)

	latest, err := repo.GetLatest(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, finalizelog.StatusCompleted, latest.Status)
	assert.Contains(t, latest.ErrorMessages, "broker down")
	assert.Contains(t, latest.Result, `"orderId":42`)
}

func TestLookup(t *testing.T) {
	repo := &memRepo{}
	commerce := &fakeCommerce{placed: &entity.PlacedOrder{OrderID: 42, OrderNumber: 1001}}
	p := NewPipeline(repo, commerce, &fakePublisher{})
	ctx := context.Background()

	_, found, err := p.Lookup(ctx, "pay_1")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = p.Run(ctx, testPayload())
	require.NoError(t, err)

	placed, found, err := p.Lookup(ctx, "pay_1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(42), placed.OrderID)
}

func TestReplay_ResubmitsFailedPayment(t *testing.T) {
	repo := &memRepo{}
	commerce := &fakeCommerce{err: errors.New("timeout")}
	p := NewPipeline(repo, commerce, &fakePublisher{})
	ctx := context.Background()

	_, err := p.Run(ctx, testPayload())
	require.Error(t, err)

	commerce.err = nil
	commerce.placed = &entity.PlacedOrder{OrderID: 7, OrderNumber: 1007}

	placed, err := p.Replay(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), placed.OrderID)
	assert.Equal(t, 2, commerce.calls)

	latest, _ := repo.GetLatest(ctx, "pay_1")
	assert.Equal(t, finalizelog.StatusCompleted, latest.Status)
}

func TestReplay_DoesNotResubmitPlacedOrder(t *testing.T) {
	repo := &memRepo{}
	ctx := context.Background()

	// crash after the commerce order was created but before COMPLETED
	require.NoError(t, repo.Save(ctx, finalizelog.NewRecord(ctx, "pay_1", finalizelog.StatusStarted, "", `{"payment_id":"pay_1"}`, "", nil)))
	require.NoError(t, repo.Save(ctx, finalizelog.NewRecord(ctx, "pay_1", finalizelog.StatusStepDone, StepSubmitOrder, "", `{"orderId":9,"orderNumber":1009}`, nil)))

	commerce := &fakeCommerce{placed: &entity.PlacedOrder{OrderID: 99}}
	p := NewPipeline(repo, commerce, &fakePublisher{})

	placed, err := p.Replay(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, int64(9), placed.OrderID)
	assert.True(t, placed.Replayed)
	assert.Equal(t, 0, commerce.calls)

	latest, _ := repo.GetLatest(ctx, "pay_1")
	assert.Equal(t, finalizelog.StatusCompleted, latest.Status)
}

func TestReplay_UnknownPayment(t *testing.T) {
	p := NewPipeline(&memRepo{}, &fakeCommerce{}, &fakePublisher{})

	_, err := p.Replay(context.Background(), "missing")
	assert.ErrorIs(t, err, finalizelog.ErrNotFound)
}

func seedStarted(t *testing.T, repo *memRepo, at time.Time) {
	t.Helper()
	ctx := context.Background()
	rec := finalizelog.NewRecord(ctx, "pay_1", finalizelog.StatusStarted, "", `{"payment_id":"pay_1","gateway_order_id":"order_1"}`, "", nil)
	rec.UpdatedAt = at
	require.NoError(t, repo.Save(ctx, rec))
}

func TestLookup_RecentStartedIsInProgress(t *testing.T) {
	repo := &memRepo{}
	started := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	seedStarted(t, repo, started)

	commerce := &fakeCommerce{placed: &entity.PlacedOrder{OrderID: 42}}
	p := NewPipeline(repo, commerce, &fakePublisher{}, WithInFlightWindow(30*time.Second))
	ctx := context.Background()

	p.now = func() time.Time { return started.Add(10 * time.Second) }
	_, found, err := p.Lookup(ctx, "pay_1")
	assert.ErrorIs(t, err, ErrInProgress)
	assert.False(t, found)

	_, err = p.Replay(ctx, "pay_1")
	assert.ErrorIs(t, err, ErrInProgress)
	assert.Equal(t, 0, commerce.calls)

	p.now = func() time.Time { return started.Add(time.Minute) }
	_, found, err = p.Lookup(ctx, "pay_1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookup_InFlightCheckDisabled(t *testing.T) {
	repo := &memRepo{}
	seedStarted(t, repo, time.Now().UTC())

	p := NewPipeline(repo, &fakeCommerce{}, &fakePublisher{}, WithInFlightWindow(0))

	_, found, err := p.Lookup(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.False(t, found)
}
