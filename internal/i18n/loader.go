package i18n

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/example/ec-storefront/internal/infrastructure/fixture"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidLanguage = errors.New("invalid language code")

var languageCode = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2,4})?$`)

// ValidLanguage reports whether code looks like a language tag such as "pl"
// or "en-GB"
func ValidLanguage(code string) bool {
	return languageCode.MatchString(code)
}

// Loader fetches translation tables and caches the successful ones, so that
// every session switching to a language shares one fetch. Tables handed out
// by the loader must be treated as read-only.
type Loader struct {
	source fixture.Source
	logger *zap.Logger

	mu     sync.RWMutex
	tables map[string]Table
	group  singleflight.Group
}

func NewLoader(source fixture.Source, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		source: source,
		logger: logger.Named("i18n"),
		tables: make(map[string]Table),
	}
}

// Load returns the table for lang, fetching it on first use
func (l *Loader) Load(ctx context.Context, lang string) (Table, error) {
	if !ValidLanguage(lang) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}

	l.mu.RLock()
	table, ok := l.tables[lang]
	l.mu.RUnlock()
	if ok {
		return table, nil
	}

	v, err, _ := l.group.Do(lang, func() (any, error) {
		fetched, err := fixture.FetchJSON[Table](ctx, l.source, fixture.TranslationPath(lang))
		if err != nil {
			return nil, err
		}
		if fetched == nil {
			fetched = Table{}
		}

		l.mu.Lock()
		l.tables[lang] = fetched
		l.mu.Unlock()

		l.logger.Info("loaded translations", zap.String("language", lang), zap.Int("keys", len(fetched)))
		return fetched, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load translations for %s: %w", lang, err)
	}
	return v.(Table), nil
}

// Cached lists the languages whose tables are cached
func (l *Loader) Cached() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	langs := make([]string, 0, len(l.tables))
	for lang := range l.tables {
		langs = append(langs, lang)
	}
	return langs
}
