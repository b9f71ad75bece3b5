//go:build !integration

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-merchant-commerce/internal/domain"
)

func fastPolicy() Policy {
	return Policy{BaseDelay: time.Millisecond, MaxAttempts: 3}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), nil, "op", func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), nil, "op", func() error {
		calls++
		if calls < 3 {
			return domain.ErrUnavailable
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_StopsAtAttemptCeiling(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), nil, "op", func() error {
		calls++
		return domain.ErrUnavailable
	})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected last transient error to surface, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want MaxAttempts (3)", calls)
	}
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), nil, "op", func() error {
		calls++
		return domain.ErrNotFound
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, non-transient errors must not be retried", calls)
	}
}

func TestDo_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{BaseDelay: 50 * time.Millisecond, MaxAttempts: 10}, nil, "op", func() error {
		calls++
		cancel()
		return domain.ErrUnavailable
	})
	if err == nil {
		t.Fatal("expected an error after cancellation")
	}
	if calls > 2 {
		t.Errorf("calls = %d, cancellation must stop the loop", calls)
	}
}
