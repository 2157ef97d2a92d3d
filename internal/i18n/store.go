package i18n

import (
	"context"
	"sync"

	"github.com/example/ec-storefront/internal/observable"
	"go.uber.org/zap"
)

const DefaultLanguage = "pl"

// Store is the active language and translation table of one session.
//
// SetLanguage publishes the new code before its table is loaded, so for the
// duration of the load Language() and Table() can disagree. A load finished
// after a later SetLanguage started is dropped.
type Store struct {
	mu         sync.Mutex
	generation uint64
	loader     *Loader
	language   *observable.Subject[string]
	table      *observable.Subject[Table]
	logger     *zap.Logger
	initial    string
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithDefaultLanguage(code string) Option {
	return func(s *Store) { s.initial = code }
}

// NewStore starts in the default language and loads its table. A failed
// load leaves the table empty, so every key translates to itself.
func NewStore(ctx context.Context, loader *Loader, opts ...Option) *Store {
	s := &Store{
		loader:  loader,
		table:   observable.NewSubject(Table{}),
		logger:  zap.NewNop(),
		initial: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("i18n")
	s.language = observable.NewSubject(s.initial)

	_ = s.SetLanguage(ctx, s.initial)
	return s
}

// SetLanguage switches to code and loads its table. On failure the previous
// table stays active and the error is returned.
func (s *Store) SetLanguage(ctx context.Context, code string) error {
	if !ValidLanguage(code) {
		s.logger.Warn("rejected language", zap.String("language", code))
		return ErrInvalidLanguage
	}

	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.language.Publish(code)
	s.mu.Unlock()

	table, err := s.loader.Load(ctx, code)
	if err != nil {
		s.logger.Error("failed to load translations", zap.String("language", code), zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		s.logger.Debug("discarding superseded translations", zap.String("language", code))
		return nil
	}
	s.table.Publish(table)
	return nil
}

// Translate is the continuous translation of key, recomputed whenever the
// table changes
func (s *Store) Translate(key string, params map[string]string) observable.Observable[string] {
	return observable.Map[Table](s.table, func(t Table) string {
		return Translate(t, key, params)
	})
}

// Instant translates key against the current table
func (s *Store) Instant(key string, params map[string]string) string {
	return Translate(s.table.Value(), key, params)
}

func (s *Store) Language() string {
	return s.language.Value()
}

func (s *Store) LanguageChanges() observable.Observable[string] {
	return s.language
}

// Table returns a copy of the active table
func (s *Store) Table() Table {
	return cloneTable(s.table.Value())
}
