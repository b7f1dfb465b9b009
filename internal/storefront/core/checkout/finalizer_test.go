package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graceseason/storefront/internal/coordinator"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
)

const testSecret = "rzp_test_secret"

type mockRunner struct {
	mu       sync.Mutex
	placed   map[string]*entity.PlacedOrder
	payloads  []*coordinator.Payload
	err       error
	lookupErr error
}

func newMockRunner() *mockRunner {
	return &mockRunner{placed: map[string]*entity.PlacedOrder{}}
}

func (m *mockRunner) Lookup(_ context.Context, paymentID string) (*entity.PlacedOrder, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, false, m.lookupErr
	}
	p, ok := m.placed[paymentID]
	if !ok {
		return nil, false, nil
	}
	cp := *p
	return &cp, true, nil
}

func (m *mockRunner) Run(_ context.Context, payload *coordinator.Payload) (*entity.PlacedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	if m.err != nil {
		return nil, m.err
	}
	p := &entity.PlacedOrder{OrderID: 5001, OrderNumber: 1001, PaymentID: payload.PaymentID}
	m.placed[payload.PaymentID] = p
	cp := *p
	return &cp, nil
}

func testFinalizer(r finalizeRunner) *Finalizer {
	return NewFinalizer(FinalizerConfig{
		KeySecret:   testSecret,
		Currency:    "GHS",
		CountryCode: "91",
		Country:     "India",
	}, r)
}

func validRequest() FinalizeRequest {
	return FinalizeRequest{
		Name:    "Ama Mensah Owusu",
		Phone:   "98765 43210",
		Address: " 12 Ring Road ",
		Items: []FinalizeItem{
			{ID: "a", Title: "Jacket", Price: decimal.RequireFromString("10.50"), Quantity: 2},
			{ID: "b", Title: "Scarf", Price: decimal.RequireFromString("5.25"), Quantity: 1},
		},
		Completion: entity.PaymentCompletion{
			PaymentID: "pay_1",
			OrderID:   "order_1",
			Signature: ExpectedSignature(testSecret, "order_1", "pay_1"),
		},
	}
}

func TestFinalize_Success(t *testing.T) {
	runner := newMockRunner()
	f := testFinalizer(runner)

	placed, err := f.Finalize(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(5001), placed.OrderID)
	assert.Equal(t, int64(1001), placed.OrderNumber)
	assert.False(t, placed.Replayed)

	require.Len(t, runner.payloads, 1)
	p := runner.payloads[0]
	assert.Equal(t, "pay_1", p.PaymentID)
	assert.Equal(t, "order_1", p.GatewayOrderID)

	o := p.Order
	assert.Equal(t, "26.25", o.TotalPrice)
	assert.Equal(t, "GHS", o.Currency)
	assert.Equal(t, "paid", o.FinancialStatus)
	assert.Equal(t, "razorpay-pay_1", o.Tags)
	assert.Contains(t, o.Note, "pay_1")
	assert.Contains(t, o.Note, "order_1")

	assert.Equal(t, "Ama", o.Customer.FirstName)
	assert.Equal(t, "Mensah Owusu", o.Customer.LastName)
	assert.Equal(t, "+919876543210", o.Customer.Phone)
	assert.True(t, strings.HasPrefix(o.Customer.Email, "customer_"))
	assert.True(t, strings.HasSuffix(o.Customer.Email, "@example.com"))

	assert.Equal(t, "12 Ring Road", o.ShippingAddress.Address1)
	assert.Equal(t, "Unknown", o.ShippingAddress.City)
	assert.Equal(t, "Unknown", o.ShippingAddress.Province)
	assert.Equal(t, "India", o.ShippingAddress.Country)
	assert.Equal(t, "000000", o.ShippingAddress.Zip)

	require.Len(t, o.Transactions, 1)
	tx := o.Transactions[0]
	assert.Equal(t, "sale", tx.Kind)
	assert.Equal(t, "success", tx.Status)
	assert.Equal(t, "26.25", tx.Amount)
	assert.Equal(t, "Razorpay", tx.Gateway)
	assert.Equal(t, "pay_1", tx.Authorization)
}

func TestFinalize_SingleName(t *testing.T) {
	runner := newMockRunner()
	req := validRequest()
	req.Name = "Kofi"

	_, err := testFinalizer(runner).Finalize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Kofi", runner.payloads[0].Order.Customer.FirstName)
	assert.Empty(t, runner.payloads[0].Order.Customer.LastName)
}

func TestFinalize_EmptyItemsFallback(t *testing.T) {
	runner := newMockRunner()
	req := validRequest()
	req.Items = nil

	_, err := testFinalizer(runner).Finalize(context.Background(), req)
	require.NoError(t, err)
	o := runner.payloads[0].Order
	assert.Equal(t, "5.00", o.TotalPrice)
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, "Thrift Item", o.LineItems[0].Title)
}

func TestFinalize_MissingFields(t *testing.T) {
	mutations := map[string]func(*FinalizeRequest){
		"name":       func(r *FinalizeRequest) { r.Name = " " },
		"phone":      func(r *FinalizeRequest) { r.Phone = "" },
		"address":    func(r *FinalizeRequest) { r.Address = "" },
		"payment id": func(r *FinalizeRequest) { r.Completion.PaymentID = "" },
		"order id":   func(r *FinalizeRequest) { r.Completion.OrderID = "" },
		"signature":  func(r *FinalizeRequest) { r.Completion.Signature = "" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			runner := newMockRunner()
			req := validRequest()
			mutate(&req)

			_, err := testFinalizer(runner).Finalize(context.Background(), req)
			assert.ErrorIs(t, err, ErrMissingFields)
			assert.Empty(t, runner.payloads)
		})
	}
}

func TestFinalize_InvalidPhone(t *testing.T) {
	runner := newMockRunner()
	req := validRequest()
	req.Phone = "123"

	_, err := testFinalizer(runner).Finalize(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidPhone)
	assert.Empty(t, runner.payloads)
}

func TestFinalize_InvalidSignature(t *testing.T) {
	runner := newMockRunner()
	req := validRequest()
	sig := []byte(req.Completion.Signature)
	if sig[len(sig)-1] == '0' {
		sig[len(sig)-1] = '1'
	} else {
		sig[len(sig)-1] = '0'
	}
	req.Completion.Signature = string(sig)

	_, err := testFinalizer(runner).Finalize(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, runner.payloads)
}

func TestFinalize_AlreadyFinalized(t *testing.T) {
	runner := newMockRunner()
	f := testFinalizer(runner)
	ctx := context.Background()

	first, err := f.Finalize(ctx, validRequest())
	require.NoError(t, err)

	second, err := f.Finalize(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.True(t, second.Replayed)
	assert.Len(t, runner.payloads, 1)
}

func TestFinalize_RunError(t *testing.T) {
	runner := newMockRunner()
	runner.err = &UpstreamError{Service: "shopify", StatusCode: 422, Detail: "line_items: invalid"}

	_, err := testFinalizer(runner).Finalize(context.Background(), validRequest())
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 422, upstream.StatusCode)
}

func TestFinalize_InProgressElsewhere(t *testing.T) {
	runner := newMockRunner()
	runner.lookupErr = coordinator.ErrInProgress

	_, err := testFinalizer(runner).Finalize(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrFinalizeInProgress)
	assert.Empty(t, runner.payloads)
}
