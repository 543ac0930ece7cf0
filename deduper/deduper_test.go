package deduper

import (
	"context"
	"sync"
	"testing"
)

func TestAddIfNotExists(t *testing.T) {
	d := New()
	ctx := context.Background()

	if !d.AddIfNotExists(ctx, "552100554") {
		t.Fatal("first sighting should return true")
	}

	if d.AddIfNotExists(ctx, "552100554") {
		t.Fatal("second sighting should return false")
	}

	if d.AddIfNotExists(ctx, "  552100554  ") {
		t.Fatal("whitespace variants are the same key")
	}

	if d.AddIfNotExists(ctx, "") {
		t.Fatal("empty keys are never new")
	}
}

func TestAddIfNotExistsConcurrent(t *testing.T) {
	d := New()
	ctx := context.Background()

	const workers = 16

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if d.AddIfNotExists(ctx, "542051180") {
				mu.Lock()
				first++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if first != 1 {
		t.Fatalf("exactly one goroutine should win, got %d", first)
	}
}
