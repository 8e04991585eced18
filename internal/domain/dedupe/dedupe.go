// Package dedupe drops values that repeat the previously accepted one.
package dedupe

import (
	"context"
	"sync"
)

// Deduper remembers the last accepted key (distinct-until-changed).
type Deduper interface {
	// SeenAndRecord reports whether id equals the last recorded key.
	// When it does not, id becomes the new last key and false is returned.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id if it is the last recorded key, so the next
	// identical value passes again.
	Unrecord(ctx context.Context, id string)

	// Size is 1 once a key has been recorded, 0 otherwise.
	Size() int64
}

type consecutiveDeduper struct {
	mu      sync.Mutex
	keyFunc func(string) string
	last    string
	has     bool
}

// NewConsecutive creates a deduper that only compares against the
// immediately preceding accepted key.
func NewConsecutive(opts ...Option) Deduper {
	d := &consecutiveDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *consecutiveDeduper) key(id string) string {
	if d.keyFunc == nil {
		return id
	}
	return d.keyFunc(id)
}

func (d *consecutiveDeduper) SeenAndRecord(_ context.Context, id string) bool {
	k := d.key(id)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.has && d.last == k {
		return true
	}
	d.last = k
	d.has = true
	return false
}

func (d *consecutiveDeduper) Unrecord(_ context.Context, id string) {
	k := d.key(id)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.has && d.last == k {
		d.last = ""
		d.has = false
	}
}

func (d *consecutiveDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.has {
		return 1
	}
	return 0
}
