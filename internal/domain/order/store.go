// Package order holds the order history shared by every session.
package order

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/events"
	"github.com/example/ec-storefront/internal/infrastructure/fixture"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/example/ec-storefront/internal/observable"
	"github.com/example/ec-storefront/internal/sequence"
	"go.uber.org/zap"
)

// Store is the order list. Mutations are serialized by mu, which also
// covers persisting the list, so concurrent CreateOrder calls never share an
// id and never lose each other's writes.
type Store struct {
	mu        sync.Mutex
	kv        storage.KeyValue
	orders    *observable.Subject[[]Order]
	ids       *sequence.Sequence
	publisher events.Publisher
	emitter   *events.Emitter
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Store) { s.publisher = publisher }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore loads the order list once: from the persisted snapshot if there is
// one, otherwise from the fixture source (persisting what it gets). A failed
// fetch starts the store empty.
func NewStore(ctx context.Context, kv storage.KeyValue, source fixture.Source, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		orders: observable.NewSubject([]Order{}, observable.WithClone(cloneOrders)),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("order")
	s.emitter = events.NewEmitter(s.publisher, s.logger)

	loaded := s.load(ctx, source)
	s.ids = sequence.New(sequence.MaxOf(loaded, func(o Order) int64 { return o.ID }))
	s.orders.Publish(loaded)
	return s
}

func (s *Store) load(ctx context.Context, source fixture.Source) []Order {
	stored, ok, err := storage.LoadJSON[[]Order](ctx, s.kv, storage.KeyOrders)
	if err != nil {
		s.logger.Warn("ignoring persisted orders", zap.Error(err))
	}
	if ok {
		s.logger.Info("loaded persisted orders", zap.Int("count", len(stored)))
		return nonNil(stored)
	}

	fetched, err := fixture.FetchJSON[[]Order](ctx, source, fixture.OrdersPath)
	if err != nil {
		s.logger.Error("failed to fetch orders, starting empty", zap.Error(err))
		return []Order{}
	}
	fetched = nonNil(fetched)
	s.persist(ctx, fetched)
	s.logger.Info("loaded orders from fixture", zap.Int("count", len(fetched)))
	return fetched
}

func nonNil(orders []Order) []Order {
	if orders == nil {
		return []Order{}
	}
	return orders
}

// persist must be called with mu held (or before the store is shared)
func (s *Store) persist(ctx context.Context, orders []Order) {
	if err := storage.SaveJSON(ctx, s.kv, storage.KeyOrders, orders); err != nil {
		s.logger.Error("failed to persist orders", zap.Error(err))
	}
}

// CreateOrder appends a pending order built from d and returns it. The total
// is d.Total when set, otherwise Σ price × quantity of the copied items.
func (s *Store) CreateOrder(ctx context.Context, d Draft) (Order, error) {
	total, err := d.total()
	if err != nil {
		return Order{}, err
	}

	s.mu.Lock()
	now := s.now()
	created := Order{
		ID:            s.ids.Next(),
		UserID:        d.UserID,
		Items:         cart.CloneEntries(d.Items),
		PaymentMethod: d.PaymentMethod,
		Total:         total,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if d.ShippingAddress != nil {
		addr := *d.ShippingAddress
		created.ShippingAddress = &addr
	}

	updated := s.orders.Update(func(current []Order) []Order {
		return append(cloneOrders(current), created.Clone())
	})
	s.persist(ctx, updated)
	s.mu.Unlock()

	s.logger.Info("order created",
		zap.Int64("order_id", created.ID),
		zap.Int64("user_id", created.UserID),
		zap.String("total", created.Total.StringFixed(2)))

	s.emitter.Emit(ctx, AggregateType, strconv.FormatInt(created.ID, 10), EventOrderCreated, OrderCreated{
		OrderID:   created.ID,
		UserID:    created.UserID,
		ItemCount: cart.CountOf(created.Items),
		Total:     created.Total,
		CreatedAt: created.CreatedAt,
	})

	return created, nil
}

// UpdateOrderStatus sets the status of orderID and refreshes its UpdatedAt.
// It reports false when the order does not exist or status is unknown.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status Status) bool {
	if !status.Valid() {
		return false
	}

	s.mu.Lock()
	current := s.orders.Value()
	idx := -1
	for i, o := range current {
		if o.ID == orderID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return false
	}

	previous := current[idx].Status
	now := s.now()
	current[idx].Status = status
	current[idx].UpdatedAt = now
	s.orders.Publish(current)
	s.persist(ctx, current)
	s.mu.Unlock()

	s.emitter.Emit(ctx, AggregateType, strconv.FormatInt(orderID, 10), EventOrderStatusChanged, OrderStatusChanged{
		OrderID:   orderID,
		From:      previous,
		To:        status,
		UpdatedAt: now,
	})
	return true
}

// Orders is the continuous list of every order
func (s *Store) Orders() observable.Observable[[]Order] {
	return s.orders
}

// OrdersByUser is the continuous list of the orders owned by userID
func (s *Store) OrdersByUser(userID int64) observable.Observable[[]Order] {
	return observable.Map[[]Order](s.orders, func(orders []Order) []Order {
		filtered := make([]Order, 0)
		for _, o := range orders {
			if o.UserID == userID {
				filtered = append(filtered, o)
			}
		}
		return filtered
	})
}

// OrderByID is the continuous lookup of one order; nil means not found
func (s *Store) OrderByID(orderID int64) observable.Observable[*Order] {
	return observable.Map[[]Order](s.orders, func(orders []Order) *Order {
		for _, o := range orders {
			if o.ID == orderID {
				found := o
				return &found
			}
		}
		return nil
	})
}

// Snapshot returns a copy of every order
func (s *Store) Snapshot() []Order {
	return s.orders.Value()
}
