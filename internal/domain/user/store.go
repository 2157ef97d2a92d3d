package user

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/events"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/example/ec-storefront/internal/observable"
	"go.uber.org/zap"
)

// Store tracks the current user of one session. The current user is
// persisted under "currentUser" in kv, without the password hash.
type Store struct {
	mu        sync.Mutex
	directory *Directory
	kv        storage.KeyValue
	current   *observable.Subject[*User]
	sessionID string
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

// WithSessionID tags the store's events with the owning session
func WithSessionID(id string) Option {
	return func(s *Store) { s.sessionID = id }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// NewStore restores the persisted current user, if any
func NewStore(ctx context.Context, directory *Directory, kv storage.KeyValue, opts ...Option) *Store {
	s := &Store{
		directory: directory,
		kv:        kv,
		current:   observable.NewSubject[*User](nil, observable.WithClone(cloneUser)),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("auth")
	if s.sessionID != "" {
		s.logger = s.logger.With(zap.String("session_id", s.sessionID))
	}
	s.emitter = events.NewEmitter(s.publisher, s.logger)

	stored, ok, err := storage.LoadJSON[User](ctx, kv, storage.KeyCurrentUser)
	if err != nil {
		s.logger.Warn("ignoring persisted current user", zap.Error(err))
	}
	if ok {
		restored := stored.Public()
		s.current.Publish(&restored)
	}
	return s
}

// setCurrent must be called with mu held
func (s *Store) setCurrent(ctx context.Context, u User) {
	public := u.Public()
	s.current.Publish(&public)
	if err := storage.SaveJSON(ctx, s.kv, storage.KeyCurrentUser, public); err != nil {
		s.logger.Error("failed to persist current user", zap.Error(err))
	}
}

// Login makes the user matching username and password current. On failure
// the current user is left unchanged.
func (s *Store) Login(ctx context.Context, username, password string) error {
	u, err := s.directory.Authenticate(ctx, username, password)
	if err != nil {
		s.logger.Info("login failed", zap.String("username", username), zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.setCurrent(ctx, u)
	s.mu.Unlock()

	s.logger.Info("user logged in", zap.Int64("user_id", u.ID))
	s.emitter.Emit(ctx, AggregateType, strconv.FormatInt(u.ID, 10), EventUserLoggedIn, UserLoggedIn{
		UserID:    u.ID,
		SessionID: s.sessionID,
		LoggedAt:  s.now(),
	})
	return nil
}

// Register adds an account and logs it in
func (s *Store) Register(ctx context.Context, reg Registration) (*User, error) {
	u, err := s.directory.Add(ctx, reg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.setCurrent(ctx, u)
	s.mu.Unlock()

	s.emitter.Emit(ctx, AggregateType, strconv.FormatInt(u.ID, 10), EventUserLoggedIn, UserLoggedIn{
		UserID:    u.ID,
		SessionID: s.sessionID,
		LoggedAt:  s.now(),
	})
	public := u.Public()
	return &public, nil
}

// Logout clears the current user and its persisted trace
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	previous := s.current.Value()
	s.current.Publish(nil)
	if err := s.kv.Remove(ctx, storage.KeyCurrentUser); err != nil {
		s.logger.Error("failed to remove current user", zap.Error(err))
	}
	s.mu.Unlock()

	if previous == nil {
		return
	}
	s.logger.Info("user logged out", zap.Int64("user_id", previous.ID))
	s.emitter.Emit(ctx, AggregateType, strconv.FormatInt(previous.ID, 10), EventUserLoggedOut, UserLoggedOut{
		UserID:    previous.ID,
		SessionID: s.sessionID,
		LoggedAt:  s.now(),
	})
}

// UpdateUserProfile merges upd into the current user, persisting both the
// user list and the current-user snapshot
func (s *Store) UpdateUserProfile(ctx context.Context, upd ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.current.Value()
	if current == nil {
		return ErrNotLoggedIn
	}

	updated, err := s.directory.Update(ctx, current.ID, upd)
	if err != nil {
		return err
	}
	s.setCurrent(ctx, updated)
	return nil
}

func (s *Store) IsLoggedIn() bool {
	return s.current.Value() != nil
}

// CurrentUser returns a copy of the current user, or nil
func (s *Store) CurrentUser() *User {
	return s.current.Value()
}

// CurrentUserChanges is the continuous current user; nil means logged out
func (s *Store) CurrentUserChanges() observable.Observable[*User] {
	return s.current
}
