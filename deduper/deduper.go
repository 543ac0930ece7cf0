// Package deduper filters out identifiers that were already seen.
package deduper

import (
	"context"
	"strings"
	"sync"
)

// Deduper keeps track of identifiers and reports first sightings.
type Deduper interface {
	// AddIfNotExists returns true when key was not seen before.
	AddIfNotExists(ctx context.Context, key string) bool
}

// New creates an in-memory Deduper safe for concurrent use.
func New() Deduper {
	return &deduper{}
}

type deduper struct {
	seen sync.Map
}

func (d *deduper) AddIfNotExists(_ context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}

	_, loaded := d.seen.LoadOrStore(key, struct{}{})

	return !loaded
}
