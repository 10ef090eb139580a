// Package storage persists document bytes under a resolved stored name.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrExist       = errors.New("object already exists")
	ErrNotExist    = errors.New("object does not exist")
	ErrInvalidName = errors.New("invalid object name")
)

// maxSuffixAttempts bounds the counter fallback used when the timestamped
// name is already taken.
const maxSuffixAttempts = 1000

// Store is a flat namespace of immutable objects. Create must fail with
// ErrExist instead of overwriting an existing object.
type Store interface {
	Create(ctx context.Context, name string, data []byte) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

// CleanName reduces a client supplied file name to its last path element.
func CleanName(original string) (string, error) {
	name := original
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	return name, nil
}

// CreateUnique stores data under the original name, or under
// "<base> (<unix_ts>)<ext>" when that is taken, then "<base> (<unix_ts>-<n>)<ext>".
// Every candidate is claimed through Store.Create so no existing object is
// ever overwritten. It returns the name actually used.
func CreateUnique(ctx context.Context, s Store, original string, data []byte, now time.Time) (string, error) {
	name, err := CleanName(original)
	if err != nil {
		return "", err
	}

	err = s.Create(ctx, name, data)
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, ErrExist) {
		return "", err
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	ts := now.Unix()

	candidate := fmt.Sprintf("%s (%d)%s", base, ts, ext)
	for n := 1; ; n++ {
		err := s.Create(ctx, candidate, data)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, ErrExist) {
			return "", err
		}
		if n > maxSuffixAttempts {
			return "", fmt.Errorf("no free name for %q after %d attempts: %w", name, n, ErrExist)
		}
		candidate = fmt.Sprintf("%s (%d-%d)%s", base, ts, n, ext)
	}
}
