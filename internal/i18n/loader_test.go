package i18n

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/example/ec-storefront/internal/infrastructure/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingSource counts fetches per path and can hold them until released
type countingSource struct {
	inner   fixture.Source
	fetches sync.Map
	gates   map[string]chan struct{}
	started chan string
}

func newCountingSource(files fstest.MapFS) *countingSource {
	return &countingSource{
		inner:   fixture.NewFSSource(files),
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 16),
	}
}

// hold blocks fetches of path until the returned func is called
func (s *countingSource) hold(path string) (release func()) {
	gate := make(chan struct{})
	s.gates[path] = gate
	return func() { close(gate) }
}

func (s *countingSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	counter, _ := s.fetches.LoadOrStore(path, new(atomic.Int32))
	counter.(*atomic.Int32).Add(1)
	s.started <- path
	if gate, ok := s.gates[path]; ok {
		<-gate
	}
	return s.inner.Fetch(ctx, path)
}

func (s *countingSource) count(path string) int {
	counter, ok := s.fetches.Load(path)
	if !ok {
		return 0
	}
	return int(counter.(*atomic.Int32).Load())
}

func translationFiles() fstest.MapFS {
	return fstest.MapFS{
		"i18n/pl.json": {Data: []byte(`{"welcome.message": "Witaj {{name}}!", "nav": {"home": "Strona główna"}}`)},
		"i18n/en.json": {Data: []byte(`{"welcome.message": "Hello {{name}}, welcome!", "nav": {"home": "Home"}}`)},
		"i18n/de.json": {Data: []byte(`{"nav": {"home": "Startseite"}}`)},
	}
}

func TestLoader_Load_CachesTables(t *testing.T) {
	source := newCountingSource(translationFiles())
	loader := NewLoader(source, zap.NewNop())
	ctx := context.Background()

	first, err := loader.Load(ctx, "en")
	require.NoError(t, err)
	second, err := loader.Load(ctx, "en")
	require.NoError(t, err)

	assert.Equal(t, "Home", Lookup(first, "nav.home"))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.count("i18n/en.json"))
	assert.ElementsMatch(t, []string{"en"}, loader.Cached())
}

func TestLoader_Load_FailuresAreNotCached(t *testing.T) {
	source := newCountingSource(translationFiles())
	loader := NewLoader(source, nil)
	ctx := context.Background()

	_, err := loader.Load(ctx, "fr")
	assert.ErrorIs(t, err, fixture.ErrNotFound)
	_, err = loader.Load(ctx, "fr")
	assert.Error(t, err)

	assert.Equal(t, 2, source.count("i18n/fr.json"))
	assert.Empty(t, loader.Cached())
}

func TestLoader_Load_InvalidLanguage(t *testing.T) {
	source := newCountingSource(translationFiles())
	loader := NewLoader(source, nil)

	for _, code := range []string{"", "../data/users", "PL", "english", "pl/../en"} {
		_, err := loader.Load(context.Background(), code)
		assert.ErrorIs(t, err, ErrInvalidLanguage, code)
	}
	assert.Equal(t, 0, source.count("i18n/.json"))
}

func TestLoader_Load_ConcurrentCallsShareFetch(t *testing.T) {
	source := newCountingSource(translationFiles())
	release := source.hold("i18n/de.json")
	loader := NewLoader(source, nil)

	var wg sync.WaitGroup
	results := make([]Table, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			table, err := loader.Load(context.Background(), "de")
			assert.NoError(t, err)
			results[i] = table
		}(i)
	}

	<-source.started
	release()
	wg.Wait()

	for _, table := range results {
		assert.Equal(t, "Startseite", Lookup(table, "nav.home"))
	}
	assert.LessOrEqual(t, source.count("i18n/de.json"), 5)
	assert.GreaterOrEqual(t, source.count("i18n/de.json"), 1)
}

func TestValidLanguage(t *testing.T) {
	assert.True(t, ValidLanguage("pl"))
	assert.True(t, ValidLanguage("en-GB"))
	assert.False(t, ValidLanguage("e"))
	assert.False(t, ValidLanguage("i18n/pl"))
}
