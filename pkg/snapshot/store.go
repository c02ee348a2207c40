package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/render"
)

var (
	// ErrNotFound is returned by Get when no snapshot exists for the key.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrInvalidKey is returned for keys rejected by ValidateKey.
	ErrInvalidKey = errors.New("snapshot: invalid key")

	// ErrUnknownBackend is returned by Open for an unrecognized backend.
	ErrUnknownBackend = errors.New("snapshot: unknown backend")
)

// Store persists snapshots. Delete of a missing key is not an error, and
// List returns keys in lexical order.
type Store interface {
	Put(ctx context.Context, key string, html []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// ValidateKey checks that key is a non-empty relative path of letters,
// digits, '-', '_' and '.', separated by single slashes, with no "." or
// ".." segments.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		for _, r := range seg {
			if !keyRune(r) {
				return fmt.Errorf("%w: %q contains %q", ErrInvalidKey, key, r)
			}
		}
	}
	return nil
}

func keyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '.':
		return true
	}
	return false
}

// Capture renders node and stores the HTML under key.
func Capture(ctx context.Context, store Store, key string, node *dom.Node) error {
	html, err := render.HTML(node)
	if err != nil {
		return fmt.Errorf("snapshot: render %s: %w", key, err)
	}
	return store.Put(ctx, key, []byte(html))
}

// Load returns the snapshot stored under key as a string.
func Load(ctx context.Context, store Store, key string) (string, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close releases the store's connections when it holds any.
func Close(store Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
