// Package cart holds the shopping cart of one session.
package cart

import (
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/observable"
	"github.com/shopspring/decimal"
)

// Entry is one product line of the cart
type Entry struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price × quantity of the entry
func (e Entry) Subtotal() decimal.Decimal {
	return e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// CloneEntries copies a list of entries
func CloneEntries(entries []Entry) []Entry {
	if entries == nil {
		return []Entry{}
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// TotalOf is Σ price × quantity over entries
func TotalOf(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Subtotal())
	}
	return total
}

// CountOf is Σ quantity over entries
func CountOf(entries []Entry) int {
	count := 0
	for _, e := range entries {
		count += e.Quantity
	}
	return count
}

// Store is the cart state. Insertion order is display order and there is at
// most one entry per product id. The cart is not persisted.
type Store struct {
	items *observable.Subject[[]Entry]
}

func NewStore() *Store {
	return &Store{
		items: observable.NewSubject([]Entry{}, observable.WithClone(CloneEntries)),
	}
}

// AddToCart increments the quantity of p, appending a new entry on first add
func (s *Store) AddToCart(p product.Product) {
	s.items.Update(func(current []Entry) []Entry {
		next := CloneEntries(current)
		for i := range next {
			if next[i].Product.ID == p.ID {
				next[i].Quantity++
				return next
			}
		}
		return append(next, Entry{Product: p, Quantity: 1})
	})
}

// RemoveFromCart drops the entry of productID; a missing entry is not an error
func (s *Store) RemoveFromCart(productID int64) {
	s.items.Update(func(current []Entry) []Entry {
		next := make([]Entry, 0, len(current))
		for _, e := range current {
			if e.Product.ID != productID {
				next = append(next, e)
			}
		}
		return next
	})
}

// UpdateQuantity sets the quantity of productID. A quantity of zero or less
// removes the entry; an unknown product leaves the cart unchanged. Both
// paths publish.
func (s *Store) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		s.RemoveFromCart(productID)
		return
	}

	s.items.Update(func(current []Entry) []Entry {
		next := CloneEntries(current)
		for i := range next {
			if next[i].Product.ID == productID {
				next[i].Quantity = quantity
				break
			}
		}
		return next
	})
}

// ClearCart empties the cart
func (s *Store) ClearCart() {
	s.items.Publish([]Entry{})
}

// Items is the continuous list of entries
func (s *Store) Items() observable.Observable[[]Entry] {
	return s.items
}

// TotalPrice is the continuous Σ price × quantity
func (s *Store) TotalPrice() observable.Observable[decimal.Decimal] {
	return observable.Map[[]Entry](s.items, TotalOf)
}

// ItemCount is the continuous Σ quantity
func (s *Store) ItemCount() observable.Observable[int] {
	return observable.Map[[]Entry](s.items, CountOf)
}

// Snapshot returns a copy of the current entries
func (s *Store) Snapshot() []Entry {
	return s.items.Value()
}
