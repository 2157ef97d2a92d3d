// Package session keeps the per-visitor stores: one cart, one current user
// and one active language per anonymous session.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/example/ec-storefront/internal/events"
	"github.com/example/ec-storefront/internal/i18n"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the state of one visitor
type Session struct {
	ID   string
	Cart *cart.Store
	Auth *user.Store
	I18n *i18n.Store

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Prefix is the key namespace under which a session's state is persisted
func Prefix(id string) string {
	return "session/" + id + "/"
}

// Registry creates and looks up sessions
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	kv              storage.KeyValue
	directory       *user.Directory
	loader          *i18n.Loader
	defaultLanguage string
	publisher       events.Publisher
	logger          *zap.Logger
	now             func() time.Time
}

type Option func(*Registry)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(r *Registry) { r.publisher = publisher }
}

func WithDefaultLanguage(code string) Option {
	return func(r *Registry) { r.defaultLanguage = code }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(kv storage.KeyValue, directory *user.Directory, loader *i18n.Loader, opts ...Option) *Registry {
	r := &Registry{
		sessions:        make(map[string]*Session),
		kv:              kv,
		directory:       directory,
		loader:          loader,
		defaultLanguage: i18n.DefaultLanguage,
		logger:          zap.NewNop(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("session")
	return r
}

// Create starts a new session with an empty cart, no current user and the
// default language
func (r *Registry) Create(ctx context.Context) *Session {
	id := uuid.New().String()
	return r.open(ctx, id)
}

// Resume returns the session with id, recreating it from its persisted
// state when the process no longer holds it. The cart of a recreated
// session starts empty.
func (r *Registry) Resume(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	if s, ok := r.Get(id); ok {
		return s, nil
	}
	return r.open(ctx, id), nil
}

func (r *Registry) open(ctx context.Context, id string) *Session {
	userOpts := []user.Option{
		user.WithLogger(r.logger),
		user.WithSessionID(id),
	}
	if r.publisher != nil {
		userOpts = append(userOpts, user.WithPublisher(r.publisher))
	}

	s := &Session{
		ID:       id,
		Cart:     cart.NewStore(),
		Auth:     user.NewStore(ctx, r.directory, storage.NewNamespaced(r.kv, Prefix(id)), userOpts...),
		I18n:     i18n.NewStore(ctx, r.loader, i18n.WithLogger(r.logger), i18n.WithDefaultLanguage(r.defaultLanguage)),
		lastSeen: r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		return existing
	}
	r.sessions[id] = s
	r.logger.Debug("session opened", zap.String("session_id", id))
	return s
}

// Get returns the live session with id and marks it as seen
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// Len reports how many sessions are live
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions not seen for longer than idle and returns how many
// were dropped. Their persisted current user stays, so a returning visitor
// with a valid token resumes logged in.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		r.logger.Info("swept idle sessions", zap.Int("dropped", dropped), zap.Int("live", len(r.sessions)))
	}
	return dropped
}

// Run sweeps idle sessions every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(idle)
		}
	}
}
