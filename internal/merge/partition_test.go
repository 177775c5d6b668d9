package merge

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPartitionLocks(t *testing.T) {
	locks := NewPartitionLocks()
	ctx := context.Background()

	release, err := locks.Acquire(ctx, "MLH")
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	other, err := locks.Acquire(ctx, "Devpost")
	if err != nil {
		t.Fatalf("other partition must not block: %v", err)
	}
	other()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := locks.Acquire(waitCtx, "MLH"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("busy partition: error = %v, want deadline exceeded", err)
	}

	release()
	release()

	again, err := locks.Acquire(ctx, "MLH")
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	again()
}
