package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/graceseason/storefront/internal/coordinator/finalizelog"
	"github.com/graceseason/storefront/internal/pkg/reqctx"
	"github.com/graceseason/storefront/internal/storefront/core/checkout"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
)

type IntentCreator interface {
	Create(ctx context.Context, amount *decimal.Decimal, idempotencyKey string) (*entity.PaymentIntent, error)
}

type OrderFinalizer interface {
	Finalize(ctx context.Context, req checkout.FinalizeRequest) (*entity.PlacedOrder, error)
}

type CheckoutCompleter interface {
	Complete(ctx context.Context, sessionID string, completion entity.PaymentCompletion, ship checkout.Shipping) (*checkout.CompletionResult, error)
}

type CategoryLister interface {
	List(ctx context.Context) ([]string, error)
}

type FinalizeLog interface {
	GetLatest(ctx context.Context, paymentID string) (*finalizelog.Record, error)
}

// WidgetConfig is the public part of the payment widget setup.
type WidgetConfig struct {
	KeyID       string
	Currency    string
	Name        string
	Description string
}

type Deps struct {
	Intents      IntentCreator
	Finalizer    OrderFinalizer
	Completion   CheckoutCompleter
	Sessions     ports.SessionStore
	Categories   CategoryLister
	FinalizeLog  FinalizeLog
	Widget       WidgetConfig
	MaxBodyBytes int64
}

// Handler serves the storefront API.
type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}
	return &Handler{deps: deps}
}

// CreateIntent creates a payment-gateway order for the posted amount and
// returns the gateway's order resource unchanged.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequest
	if err := decode(w, r, h.deps.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidAmount)
		return
	}

	intent, err := h.deps.Intents.Create(r.Context(), req.Amount, reqctx.IdempotencyKey(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if len(intent.Raw) > 0 {
		writeRaw(w, http.StatusOK, intent.Raw)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// FinalizeOrder verifies a completed payment and creates the commerce order.
func (h *Handler) FinalizeOrder(w http.ResponseWriter, r *http.Request) {
	var req FinalizeOrderRequest
	if err := decode(w, r, h.deps.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	items := make([]checkout.FinalizeItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, checkout.FinalizeItem{ID: it.ID, Title: it.Title, Price: it.Price, Quantity: it.Quantity})
	}

	// The commerce order must not be abandoned halfway because the client
	// went away; upstream calls carry their own timeouts.
	ctx := context.WithoutCancel(r.Context())

	placed, err := h.deps.Finalizer.Finalize(ctx, checkout.FinalizeRequest{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Items:   items,
		Completion: entity.PaymentCompletion{
			PaymentID: req.RazorpayPaymentID,
			OrderID:   req.RazorpayOrderID,
			Signature: req.RazorpaySignature,
		},
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FinalizeOrderResponse{
		Success:     true,
		OrderID:     placed.OrderID,
		OrderNumber: placed.OrderNumber,
	})
}

// CompleteCheckout finalizes the order from the session cart and clears
// the cart on success.
func (h *Handler) CompleteCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req CompleteCheckoutRequest
	if err := decode(w, r, h.deps.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	res, err := h.deps.Completion.Complete(ctx, sessionID,
		entity.PaymentCompletion{
			PaymentID: req.RazorpayPaymentID,
			OrderID:   req.RazorpayOrderID,
			Signature: req.RazorpaySignature,
		},
		checkout.Shipping{Name: req.Name, Phone: req.Phone, Address: req.Address},
	)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CompleteCheckoutResponse{
		Success:         true,
		OrderID:         res.Order.OrderID,
		OrderNumber:     res.Order.OrderNumber,
		RedirectTo:      res.RedirectTo,
		RedirectAfterMs: res.RedirectIn.Milliseconds(),
	})
}

func (h *Handler) CheckoutConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CheckoutConfigResponse{
		Key:         h.deps.Widget.KeyID,
		Currency:    h.deps.Widget.Currency,
		Name:        h.deps.Widget.Name,
		Description: h.deps.Widget.Description,
	})
}

// FinalizeStatus returns the latest finalize log record for a payment.
func (h *Handler) FinalizeStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")

	rec, err := h.deps.FinalizeLog.GetLatest(r.Context(), paymentID)
	if errors.Is(err, finalizelog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No finalize record for payment")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "finalize status lookup failed", "payment_id", paymentID, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	resp := FinalizeStatusResponse{
		PaymentID: rec.PaymentID,
		Status:    string(rec.Status),
		Step:      rec.CurrentStep,
		Errors:    rec.Errors(),
		TraceID:   rec.TraceID,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.Result != "" && json.Valid([]byte(rec.Result)) {
		resp.Result = json.RawMessage(rec.Result)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Categories lists the distinct product types of the catalog.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	types, err := h.deps.Categories.List(r.Context())
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			msg = strings.TrimSpace(err.Error())
		}
		slog.ErrorContext(r.Context(), "failed to fetch categories", "error", err)
		writeJSON(w, status, ErrorResponse{Error: "Failed to fetch categories", Message: msg})
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
