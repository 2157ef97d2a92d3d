package i18n

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/example/ec-storefront/internal/observable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestI18nStore(t *testing.T, files fstest.MapFS, opts ...Option) (*Store, *countingSource) {
	t.Helper()
	source := newCountingSource(files)
	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	return NewStore(context.Background(), NewLoader(source, nil), opts...), source
}

func TestNewStore_LoadsDefaultLanguage(t *testing.T) {
	store, source := newTestI18nStore(t, translationFiles())

	assert.Equal(t, "pl", store.Language())
	assert.Equal(t, "Strona główna", store.Instant("nav.home", nil))
	assert.Equal(t, 1, source.count("i18n/pl.json"))
}

func TestNewStore_ConfiguredDefault(t *testing.T) {
	store, _ := newTestI18nStore(t, translationFiles(), WithDefaultLanguage("en"))

	assert.Equal(t, "en", store.Language())
	assert.Equal(t, "Home", store.Instant("nav.home", nil))
}

func TestNewStore_LoadFailureTranslatesToKeys(t *testing.T) {
	store, _ := newTestI18nStore(t, fstest.MapFS{})

	assert.Equal(t, "pl", store.Language())
	assert.Equal(t, "nav.home", store.Instant("nav.home", nil))
	assert.Empty(t, store.Table())
}

func TestStore_Instant(t *testing.T) {
	store, _ := newTestI18nStore(t, translationFiles(), WithDefaultLanguage("en"))

	assert.Equal(t, "Hello John, welcome!", store.Instant("welcome.message", map[string]string{"name": "John"}))
	assert.Equal(t, "missing.key", store.Instant("missing.key", nil))
	assert.Equal(t, "missing {{x}}", store.Instant("missing {{x}}", map[string]string{"y": "1"}))
}

func TestStore_SetLanguage(t *testing.T) {
	store, _ := newTestI18nStore(t, translationFiles())
	ctx := context.Background()

	languages, stopLanguages := observable.Collect(store.LanguageChanges())
	defer stopLanguages()

	require.NoError(t, store.SetLanguage(ctx, "en"))

	assert.Equal(t, "en", store.Language())
	assert.Equal(t, "Home", store.Instant("nav.home", nil))
	assert.Equal(t, []string{"pl", "en"}, languages())
}

func TestStore_SetLanguage_FailureKeepsPreviousTable(t *testing.T) {
	store, _ := newTestI18nStore(t, translationFiles())

	err := store.SetLanguage(context.Background(), "fr")

	assert.Error(t, err)
	assert.Equal(t, "fr", store.Language(), "the code switches before the load")
	assert.Equal(t, "Strona główna", store.Instant("nav.home", nil))
}

func TestStore_SetLanguage_Invalid(t *testing.T) {
	store, _ := newTestI18nStore(t, translationFiles())

	err := store.SetLanguage(context.Background(), "../data/users")

	assert.ErrorIs(t, err, ErrInvalidLanguage)
	assert.Equal(t, "pl", store.Language())
}

func TestStore_SetLanguage_SupersededLoadIsDiscarded(t *testing.T) {
	store, source := newTestI18nStore(t, translationFiles())
	<-source.started // the default load
	release := source.hold("i18n/en.json")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- store.SetLanguage(ctx, "en") }()
	require.Equal(t, "i18n/en.json", <-source.started)

	require.NoError(t, store.SetLanguage(ctx, "de"))
	release()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("SetLanguage(en) did not return")
	}

	assert.Equal(t, "de", store.Language())
	assert.Equal(t, "Startseite", store.Instant("nav.home", nil))
}

func TestStore_Translate_FollowsTable(t *testing.T) {
	store, _ := newTestI18nStore(t, translationFiles())
	ctx := context.Background()

	values, unsubscribe := observable.Collect(store.Translate("welcome.message", map[string]string{"name": "John"}))
	defer unsubscribe()

	require.NoError(t, store.SetLanguage(ctx, "en"))
	require.NoError(t, store.SetLanguage(ctx, "de"))

	assert.Equal(t, []string{
		"Witaj John!",
		"Hello John, welcome!",
		"welcome.message",
	}, values())
}

func TestStore_Table_IsACopy(t *testing.T) {
	store, _ := newTestI18nStore(t, translationFiles())

	table := store.Table()
	table["nav"] = "gone"

	assert.Equal(t, "Strona główna", store.Instant("nav.home", nil))
}

func TestStore_SharedLoader(t *testing.T) {
	source := newCountingSource(translationFiles())
	loader := NewLoader(source, nil)
	ctx := context.Background()

	first := NewStore(ctx, loader)
	second := NewStore(ctx, loader)
	require.NoError(t, second.SetLanguage(ctx, "en"))

	assert.Equal(t, "pl", first.Language())
	assert.Equal(t, "en", second.Language())
	assert.Equal(t, 1, source.count("i18n/pl.json"))
}
