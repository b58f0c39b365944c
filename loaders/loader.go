// Package loaders batches entity lookups made while serving one request.
//
// A Loader deduplicates the IDs it is asked for, fetches only the ones it
// has not seen yet with a single bulk read, and remembers both hits and
// misses for the rest of the request. Loaders are never shared between
// requests; build a fresh set per request with New or Middleware.
package loaders

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexchoi0/driftwatch/internal/metrics"
)

// ErrBatchFetch wraps a failed bulk read. The whole Load call fails with it;
// no key is reported as absent because of a transport failure.
var ErrBatchFetch = errors.New("batch fetch failed")

// BatchFunc fetches the rows for ids. IDs without a row are left out of the map.
type BatchFunc[V any] func(ctx context.Context, ids []string) (map[string]V, error)

// Loader is a request-scoped batch-and-cache layer for one entity kind.
type Loader[V any] struct {
	kind  string
	fetch BatchFunc[V]

	mu      sync.Mutex
	found   map[string]V
	missing map[string]struct{}
}

// NewLoader creates a loader for one entity kind.
func NewLoader[V any](kind string, fetch BatchFunc[V]) *Loader[V] {
	return &Loader[V]{
		kind:    kind,
		fetch:   fetch,
		found:   make(map[string]V),
		missing: make(map[string]struct{}),
	}
}

// Load returns the entities for ids. Absent IDs are missing from the map.
// At most one bulk read is issued per call, covering only IDs this loader
// has not resolved before.
func (l *Loader[V]) Load(ctx context.Context, ids []string) (map[string]V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	wanted := make([]string, 0, len(ids))
	pending := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		wanted = append(wanted, id)

		if _, ok := l.found[id]; ok {
			continue
		}
		if _, ok := l.missing[id]; ok {
			continue
		}
		pending = append(pending, id)
	}

	if len(pending) > 0 {
		metrics.LoaderBatches.WithLabelValues(l.kind).Inc()
		rows, err := l.fetch(ctx, pending)
		if err != nil {
			metrics.LoaderBatchErrors.WithLabelValues(l.kind).Inc()
			return nil, fmt.Errorf("%w (%s): %w", ErrBatchFetch, l.kind, err)
		}
		for _, id := range pending {
			if v, ok := rows[id]; ok {
				l.found[id] = v
			} else {
				l.missing[id] = struct{}{}
			}
		}
	}

	out := make(map[string]V, len(wanted))
	for _, id := range wanted {
		if v, ok := l.found[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// LoadOne resolves a single ID. ok is false when no row exists.
func (l *Loader[V]) LoadOne(ctx context.Context, id string) (v V, ok bool, err error) {
	rows, err := l.Load(ctx, []string{id})
	if err != nil {
		return v, false, err
	}
	v, ok = rows[id]
	return v, ok, nil
}
