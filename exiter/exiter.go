// Package exiter cancels a run once every seeded job reported completion.
package exiter

import (
	"context"
	"sync"
	"time"
)

// Exiter tracks seed completion and triggers the cancel function when the
// whole batch has been processed.
type Exiter interface {
	SetSeedCount(count int)
	SetCancelFunc(cancel context.CancelFunc)
	IncrSeedCompleted(count int)
	Run(ctx context.Context)
}

// New creates an Exiter.
func New() Exiter {
	return &exiter{}
}

type exiter struct {
	mu            sync.Mutex
	seedCount     int
	seedCompleted int
	cancel        context.CancelFunc
}

func (e *exiter) SetSeedCount(count int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seedCount = count
}

func (e *exiter) SetCancelFunc(cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancel = cancel
}

func (e *exiter) IncrSeedCompleted(count int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seedCompleted += count
}

func (e *exiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.isDone() {
				e.mu.Lock()
				cancel := e.cancel
				e.mu.Unlock()

				if cancel != nil {
					cancel()
				}

				return
			}
		}
	}
}

func (e *exiter) isDone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.seedCount > 0 && e.seedCompleted >= e.seedCount
}
