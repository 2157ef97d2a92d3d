package order

import (
	"errors"
	"time"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/shopspring/decimal"
)

const AggregateType = "Order"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrNegativeTotal = errors.New("order total must not be negative")
	ErrInvalidStatus = errors.New("invalid order status")
)

// Valid reports whether s is one of the known statuses. Any valid status can
// follow any other; there is no transition table.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type ShippingAddress struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

type Order struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"userId"`
	Items           []cart.Entry     `json:"items"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	PaymentMethod   string           `json:"paymentMethod,omitempty"`
	Total           decimal.Decimal  `json:"total"`
	Status          Status           `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Clone returns a deep copy of o
func (o Order) Clone() Order {
	o.Items = cart.CloneEntries(o.Items)
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		o.ShippingAddress = &addr
	}
	return o
}

func cloneOrders(orders []Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}

// Draft is the caller-supplied part of a new order
type Draft struct {
	UserID          int64
	Items           []cart.Entry
	ShippingAddress *ShippingAddress
	PaymentMethod   string
	// Total overrides the computed Σ price × quantity when set and non-zero
	Total *decimal.Decimal
}

func (d Draft) total() (decimal.Decimal, error) {
	if d.Total != nil && !d.Total.IsZero() {
		if d.Total.IsNegative() {
			return decimal.Zero, ErrNegativeTotal
		}
		return *d.Total, nil
	}
	return cart.TotalOf(d.Items), nil
}
