package user

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/events"
	"github.com/example/ec-storefront/internal/infrastructure/fixture"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/example/ec-storefront/internal/sequence"
	"go.uber.org/zap"
)

// Directory is the user list shared by every session. The list is read from
// the persisted snapshot under "users", or from the fixture source while
// nothing has been persisted, on every call; writes persist the whole list.
type Directory struct {
	mu        sync.Mutex
	kv        storage.KeyValue
	source    fixture.Source
	hasher    *auth.Hasher
	ids       *sequence.Sequence
	publisher events.Publisher
	emitter   *events.Emitter
	logger    *zap.Logger
	now       func() time.Time
}

type DirectoryOption func(*Directory)

func WithDirectoryLogger(logger *zap.Logger) DirectoryOption {
	return func(d *Directory) { d.logger = logger }
}

func WithDirectoryPublisher(publisher events.Publisher) DirectoryOption {
	return func(d *Directory) { d.publisher = publisher }
}

func WithHasher(hasher *auth.Hasher) DirectoryOption {
	return func(d *Directory) { d.hasher = hasher }
}

func WithDirectoryClock(now func() time.Time) DirectoryOption {
	return func(d *Directory) { d.now = now }
}

func NewDirectory(kv storage.KeyValue, source fixture.Source, opts ...DirectoryOption) *Directory {
	d := &Directory{
		kv:     kv,
		source: source,
		hasher: auth.NewHasher(auth.DefaultCost),
		ids:    sequence.New(0),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named("users")
	d.emitter = events.NewEmitter(d.publisher, d.logger)
	return d
}

// load must be called with mu held
func (d *Directory) load(ctx context.Context) ([]User, error) {
	stored, ok, err := storage.LoadJSON[[]User](ctx, d.kv, storage.KeyUsers)
	if err != nil {
		d.logger.Warn("ignoring persisted users", zap.Error(err))
	}

	users := stored
	if !ok {
		users, err = fixture.FetchJSON[[]User](ctx, d.source, fixture.UsersPath)
		if err != nil {
			d.logger.Error("failed to fetch users", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
		}
	}
	if users == nil {
		users = []User{}
	}
	d.ids.Observe(sequence.MaxOf(users, func(u User) int64 { return u.ID }))
	return users, nil
}

func (d *Directory) save(ctx context.Context, users []User) error {
	if err := storage.SaveJSON(ctx, d.kv, storage.KeyUsers, users); err != nil {
		d.logger.Error("failed to persist users", zap.Error(err))
		return err
	}
	return nil
}

// Users returns every user, without password hashes
func (d *Directory) Users(ctx context.Context) ([]User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	public := make([]User, len(users))
	for i, u := range users {
		public[i] = u.Public()
	}
	return public, nil
}

// Authenticate returns the user whose username is username and whose hash
// matches password
func (d *Directory) Authenticate(ctx context.Context, username, password string) (User, error) {
	d.mu.Lock()
	users, err := d.load(ctx)
	d.mu.Unlock()
	if err != nil {
		return User{}, err
	}

	idx := indexOf(users, func(u User) bool { return u.Username == username })
	if idx == -1 || !d.hasher.Check(password, users[idx].PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return users[idx], nil
}

// Add registers a new account. The id is one past the highest id the
// directory has seen, so ids are never reused. Optional profile fields
// start blank.
func (d *Directory) Add(ctx context.Context, reg Registration) (User, error) {
	username := strings.TrimSpace(reg.Username)
	if username == "" {
		return User{}, ErrUsernameRequired
	}
	hash, err := d.hasher.Hash(reg.Password)
	if err != nil {
		return User{}, err
	}

	d.mu.Lock()
	users, err := d.load(ctx)
	if err != nil {
		d.mu.Unlock()
		return User{}, err
	}
	if indexOf(users, func(u User) bool { return u.Username == username }) != -1 {
		d.mu.Unlock()
		return User{}, ErrUsernameTaken
	}

	created := User{
		ID:           d.ids.Next(),
		Username:     username,
		Email:        reg.Email,
		PasswordHash: hash,
	}
	err = d.save(ctx, append(cloneUsers(users), created))
	d.mu.Unlock()
	if err != nil {
		return User{}, fmt.Errorf("failed to register user: %w", err)
	}

	d.logger.Info("user registered", zap.Int64("user_id", created.ID), zap.String("username", username))
	d.emitter.Emit(ctx, AggregateType, strconv.FormatInt(created.ID, 10), EventUserRegistered, UserRegistered{
		UserID:       created.ID,
		Username:     created.Username,
		Email:        created.Email,
		RegisteredAt: d.now(),
	})
	return created, nil
}

// Update merges upd into the user with id and persists the list
func (d *Directory) Update(ctx context.Context, id int64, upd ProfileUpdate) (User, error) {
	if upd.Username != nil && strings.TrimSpace(*upd.Username) == "" {
		return User{}, ErrUsernameRequired
	}

	d.mu.Lock()
	users, err := d.load(ctx)
	if err != nil {
		d.mu.Unlock()
		return User{}, err
	}
	idx := indexOf(users, func(u User) bool { return u.ID == id })
	if idx == -1 {
		d.mu.Unlock()
		return User{}, ErrUserNotFound
	}

	updated := upd.apply(users[idx])
	if updated.Username != users[idx].Username &&
		indexOf(users, func(u User) bool { return u.Username == updated.Username }) != -1 {
		d.mu.Unlock()
		return User{}, ErrUsernameTaken
	}

	next := cloneUsers(users)
	next[idx] = updated
	err = d.save(ctx, next)
	d.mu.Unlock()
	if err != nil {
		return User{}, fmt.Errorf("failed to update user: %w", err)
	}

	d.emitter.Emit(ctx, AggregateType, strconv.FormatInt(id, 10), EventUserProfileUpdated, UserProfileUpdated{
		UserID:    id,
		Fields:    upd.Fields(),
		UpdatedAt: d.now(),
	})
	return updated, nil
}
