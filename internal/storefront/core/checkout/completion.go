package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
)

const (
	redirectPath  = "/shop"
	redirectAfter = 3 * time.Second
)

type Shipping struct {
	Name    string
	Phone   string
	Address string
}

type CompletionResult struct {
	Order      *entity.PlacedOrder
	RedirectTo string
	RedirectIn time.Duration
}

type orderFinalizer interface {
	Finalize(ctx context.Context, req FinalizeRequest) (*entity.PlacedOrder, error)
}

// CompletionHandler is invoked when the payment widget reports a completed
// payment. It finalizes the order from the session cart and clears the cart
// only on success.
type CompletionHandler struct {
	sessions  ports.SessionStore
	finalizer orderFinalizer
}

func NewCompletionHandler(sessions ports.SessionStore, finalizer orderFinalizer) *CompletionHandler {
	return &CompletionHandler{sessions: sessions, finalizer: finalizer}
}

func (h *CompletionHandler) Complete(ctx context.Context, sessionID string, completion entity.PaymentCompletion, ship Shipping) (*CompletionResult, error) {
	session, err := h.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	placed, err := h.finalizer.Finalize(ctx, FinalizeRequest{
		Name:       ship.Name,
		Phone:      ship.Phone,
		Address:    ship.Address,
		Items:      ItemsFromCart(session.Cart),
		Completion: completion,
	})
	if err != nil {
		return nil, err
	}

	session.ClearCart()
	if err := h.sessions.Save(ctx, session); err != nil {
		// The order exists; the shopper can clear the cart manually.
		slog.ErrorContext(ctx, "failed to clear cart after checkout", "session_id", sessionID, "payment_id", completion.PaymentID, "error", err)
	}

	return &CompletionResult{
		Order:      placed,
		RedirectTo: redirectPath,
		RedirectIn: redirectAfter,
	}, nil
}

// ItemsFromCart snapshots cart lines as finalizer items.
func ItemsFromCart(cart []entity.CartLineItem) []FinalizeItem {
	items := make([]FinalizeItem, 0, len(cart))
	for _, line := range cart {
		items = append(items, FinalizeItem{
			ID:       line.ID,
			Title:    line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
		})
	}
	return items
}
