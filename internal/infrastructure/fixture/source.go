// Package fixture reads the static JSON documents that stand in for a
// remote backend: catalog, users, orders and translation tables.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

// Paths of the documents served by a Source.
const (
	ProductsPath   = "data/products.json"
	CategoriesPath = "data/categories.json"
	UsersPath      = "data/users.json"
	OrdersPath     = "data/orders.json"
)

var ErrNotFound = errors.New("fixture not found")

// TranslationPath returns the path of the translation table for a language
func TranslationPath(lang string) string {
	return "i18n/" + lang + ".json"
}

// Source fetches fixture documents by path
type Source interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FetchJSON fetches path from src and decodes it into a T
func FetchJSON[T any](ctx context.Context, src Source, path string) (T, error) {
	var value T

	data, err := src.Fetch(ctx, path)
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return value, nil
}

// FSSource serves fixtures from a file system (an embedded FS or a directory)
type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

func (s *FSSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(s.fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// HTTPSource serves fixtures from a static file server
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	base := s.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	url := base + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}
