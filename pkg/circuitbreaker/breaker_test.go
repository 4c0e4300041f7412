package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestBreaker(timeout time.Duration) *Breaker {
	return New("test", Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		MaxRequests:      2,
		Timeout:          timeout,
		Logger:           zap.NewNop(),
	})
}

func trip(t *testing.T, b *Breaker) {
	t.Helper()
	boom := errors.New("downstream broken")
	for i := 0; i < 3; i++ {
		if err := b.Execute(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := newTestBreaker(time.Minute)

	if b.State() != StateClosed {
		t.Fatalf("initial state = %s", b.State())
	}

	trip(t, b)

	if b.State() != StateOpen {
		t.Fatalf("state after failures = %s", b.State())
	}
	err := b.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker returned %v", err)
	}
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	b := newTestBreaker(time.Minute)
	boom := errors.New("flaky")

	b.Execute(context.Background(), func() error { return boom })
	b.Execute(context.Background(), func() error { return boom })
	b.Execute(context.Background(), func() error { return nil })
	b.Execute(context.Background(), func() error { return boom })
	b.Execute(context.Background(), func() error { return boom })

	if b.State() != StateClosed {
		t.Errorf("state = %s, interleaved successes should keep it closed", b.State())
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)

	trip(t, b)
	time.Sleep(20 * time.Millisecond)

	if b.State() != StateHalfOpen {
		t.Fatalf("state after timeout = %s", b.State())
	}

	for i := 0; i < 2; i++ {
		if err := b.Execute(context.Background(), func() error { return nil }); err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
	}
	if b.State() != StateClosed {
		t.Errorf("state after successful probes = %s", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)

	trip(t, b)
	time.Sleep(20 * time.Millisecond)

	boom := errors.New("still broken")
	b.Execute(context.Background(), func() error { return boom })

	if b.State() != StateOpen {
		t.Errorf("state after half-open failure = %s", b.State())
	}
}

func TestStateStrings(t *testing.T) {
	if StateClosed.String() != "closed" || StateHalfOpen.String() != "half-open" || StateOpen.String() != "open" {
		t.Error("state strings changed")
	}
}
