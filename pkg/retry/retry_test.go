package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeSleeper records delays without actually sleeping.
type fakeSleeper struct {
	delays []time.Duration
}

func (f *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.delays = append(f.delays, d)
	return nil
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	t.Parallel()
	s := &fakeSleeper{}
	err := do(context.Background(), Webhook(3, time.Second), func() error {
		return nil
	}, s)
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if len(s.delays) != 0 {
		t.Fatalf("expected 0 sleeps, got %d", len(s.delays))
	}
}

func TestDo_SucceedsAfterRetry(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	s := &fakeSleeper{}

	err := do(context.Background(), Webhook(3, time.Second), func() error {
		if calls.Add(1) < 3 {
			return errors.New("server error: 503")
		}
		return nil
	}, s)

	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
	if len(s.delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(s.delays))
	}
}

func TestDo_AllFail(t *testing.T) {
	t.Parallel()
	s := &fakeSleeper{}
	sentinel := errors.New("always fail")
	cfg := Config{MaxAttempts: 3, InitDelay: time.Second, Strategy: Constant}

	err := do(context.Background(), cfg, func() error {
		return sentinel
	}, s)

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if len(s.delays) != 2 {
		t.Fatalf("expected 2 sleeps (no sleep after last attempt), got %d", len(s.delays))
	}
}

func TestDo_RespectsContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Webhook(3, time.Second), func() error {
		t.Fatal("fn should not be called when context is cancelled")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDo_ExponentialBackoff(t *testing.T) {
	t.Parallel()
	s := &fakeSleeper{}

	_ = do(context.Background(), Webhook(4, time.Second), func() error {
		return errors.New("fail")
	}, s)

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	if len(s.delays) != len(want) {
		t.Fatalf("expected %d delays, got %d: %v", len(want), len(s.delays), s.delays)
	}
	for i, w := range want {
		if s.delays[i] != w {
			t.Errorf("delay[%d] = %v, want %v", i, s.delays[i], w)
		}
	}
}

func TestDo_ZeroAttempts(t *testing.T) {
	t.Parallel()
	called := false
	err := Do(context.Background(), Config{}, func() error {
		called = true
		return errors.New("should not run")
	})
	if err != nil {
		t.Fatalf("expected nil for zero attempts, got %v", err)
	}
	if called {
		t.Fatal("fn should not be called with MaxAttempts=0")
	}
}

func TestDo_StopError(t *testing.T) {
	t.Parallel()
	var calls int
	s := &fakeSleeper{}
	permanent := errors.New("client error: 403")

	err := do(context.Background(), Webhook(5, time.Second), func() error {
		calls++
		return Stop(permanent)
	}, s)

	if calls != 1 {
		t.Fatalf("expected 1 call (stop on first), got %d", calls)
	}
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	var stop *StopError
	if errors.As(err, &stop) {
		t.Fatal("Do must unwrap the StopError")
	}
	if len(s.delays) != 0 {
		t.Fatalf("expected 0 sleeps, got %d", len(s.delays))
	}
}

func TestDelay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		strategy Strategy
		attempt  int
		want     time.Duration
	}{
		{"exponential_0", Exponential, 0, 1 * time.Second},
		{"exponential_1", Exponential, 1, 2 * time.Second},
		{"exponential_2", Exponential, 2, 4 * time.Second},
		{"exponential_capped", Exponential, 10, 30 * time.Second},
		{"exponential_huge_attempt", Exponential, 1000, 30 * time.Second},
		{"constant_0", Constant, 0, 1 * time.Second},
		{"constant_3", Constant, 3, 1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Config{InitDelay: time.Second, Strategy: tt.strategy}
			if got := Delay(cfg, tt.attempt); got != tt.want {
				t.Errorf("Delay(%s, %d) = %v, want %v", tt.name, tt.attempt, got, tt.want)
			}
		})
	}
}

func TestDelay_JitterStaysWithinQuarter(t *testing.T) {
	t.Parallel()
	cfg := Config{InitDelay: 4 * time.Second, MaxDelay: time.Minute, Strategy: Constant, Jitter: true}
	for range 200 {
		d := Delay(cfg, 0)
		if d < 3*time.Second || d > 5*time.Second {
			t.Fatalf("jittered delay %v outside [3s, 5s]", d)
		}
	}
}

func TestDelay_ZeroInitDelay(t *testing.T) {
	t.Parallel()
	cfg := Config{Strategy: Exponential, Jitter: true}
	if d := Delay(cfg, 5); d != 0 {
		t.Fatalf("expected 0, got %v", d)
	}
}

func TestDo_ContextCancelledDuringSleep(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Do(ctx, Config{MaxAttempts: 5, InitDelay: 10 * time.Second, Strategy: Constant}, func() error {
		return errors.New("fail")
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("took %v, expected the context to cut the wait short", elapsed)
	}
}
