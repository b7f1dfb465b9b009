package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLineItem is a product in a shopper's cart. Items are keyed by ID and
// Size: the same product in two sizes occupies two lines.
type CartLineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Size     string          `json:"size"`
}

func (i CartLineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type WishlistItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Category string          `json:"category,omitempty"`
}

// Session is the explicit, session-scoped replacement for client-side
// cart and wishlist state.
type Session struct {
	ID        string         `json:"id"`
	Cart      []CartLineItem `json:"cart"`
	Wishlist  []WishlistItem `json:"wishlist"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewSession(id string) *Session {
	return &Session{
		ID:       id,
		Cart:     []CartLineItem{},
		Wishlist: []WishlistItem{},
	}
}

// AddItem merges item into the cart, adding quantities when the same
// (ID, Size) line is already present.
func (s *Session) AddItem(item CartLineItem) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	for i := range s.Cart {
		if s.Cart[i].ID == item.ID && s.Cart[i].Size == item.Size {
			s.Cart[i].Quantity += item.Quantity
			return
		}
	}
	s.Cart = append(s.Cart, item)
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes it. It reports whether the line was found.
func (s *Session) UpdateQuantity(id, size string, quantity int) bool {
	for i := range s.Cart {
		if s.Cart[i].ID == id && s.Cart[i].Size == size {
			if quantity <= 0 {
				s.Cart = append(s.Cart[:i], s.Cart[i+1:]...)
			} else {
				s.Cart[i].Quantity = quantity
			}
			return true
		}
	}
	return false
}

func (s *Session) RemoveItem(id, size string) bool {
	return s.UpdateQuantity(id, size, 0)
}

func (s *Session) ClearCart() {
	s.Cart = []CartLineItem{}
}

func (s *Session) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Cart {
		total = total.Add(it.Subtotal())
	}
	return total
}

// AddToWishlist ignores items already present.
func (s *Session) AddToWishlist(item WishlistItem) {
	if s.InWishlist(item.ID) {
		return
	}
	s.Wishlist = append(s.Wishlist, item)
}

func (s *Session) RemoveFromWishlist(id string) bool {
	for i := range s.Wishlist {
		if s.Wishlist[i].ID == id {
			s.Wishlist = append(s.Wishlist[:i], s.Wishlist[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) InWishlist(id string) bool {
	for _, it := range s.Wishlist {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) ClearWishlist() {
	s.Wishlist = []WishlistItem{}
}
