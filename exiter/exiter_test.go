package exiter

import (
	"context"
	"testing"
	"time"
)

func TestExiterCancelsWhenSeedsComplete(t *testing.T) {
	e := New()
	e.SetSeedCount(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e.SetCancelFunc(cancel)

	go e.Run(ctx)

	e.IncrSeedCompleted(1)
	e.IncrSeedCompleted(1)

	select {
	case <-ctx.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("exiter did not cancel after all seeds completed")
	}
}

func TestExiterIgnoresZeroSeedCount(t *testing.T) {
	e := &exiter{}

	if e.isDone() {
		t.Fatal("a run with no seeds must not be considered done")
	}
}
