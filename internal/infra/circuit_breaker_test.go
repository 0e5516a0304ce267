package infra

import (
	"testing"
	"time"
)

// trip drives a breaker through n consecutive failures.
func trip(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		cb.RecordFailure()
	}
}

func TestNewCircuitBreakerClampsConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  CircuitBreakerConfig
		// failures needed before the breaker opens
		wantFailures int
	}{
		{"zero value config", CircuitBreakerConfig{Name: "binance"}, 5},
		{"negative thresholds", CircuitBreakerConfig{Name: "binance", FailureThreshold: -3, SuccessThreshold: -1, Cooldown: -time.Second}, 5},
		{"explicit threshold", CircuitBreakerConfig{Name: "binance", FailureThreshold: 2, SuccessThreshold: 1, Cooldown: time.Minute}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(tt.cfg)

			trip(cb, tt.wantFailures-1)
			if got := cb.State(); got != BreakerClosed {
				t.Fatalf("after %d failures: state = %v, want CLOSED", tt.wantFailures-1, got)
			}
			cb.RecordFailure()
			if got := cb.State(); got != BreakerOpen {
				t.Fatalf("after %d failures: state = %v, want OPEN", tt.wantFailures, got)
			}
		})
	}
}

func TestCircuitBreakerLifecycle(t *testing.T) {
	cfg := CircuitBreakerConfig{
		Name:             "coinbase",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Cooldown:         20 * time.Millisecond,
	}
	cb := NewCircuitBreaker(cfg)

	if !cb.Allow() {
		t.Fatal("closed breaker must admit requests")
	}

	trip(cb, cfg.FailureThreshold)
	if cb.Allow() {
		t.Fatal("open breaker admitted a request before cooldown")
	}

	time.Sleep(cfg.Cooldown + 10*time.Millisecond)
	if !cb.Allow() {
		t.Fatal("breaker did not admit a trial request after cooldown")
	}
	if got := cb.State(); got != BreakerHalfOpen {
		t.Fatalf("state after cooldown = %v, want HALF_OPEN", got)
	}

	// One success is below the threshold; the breaker stays half-open.
	cb.RecordSuccess()
	if got := cb.State(); got != BreakerHalfOpen {
		t.Fatalf("state after 1 success = %v, want HALF_OPEN", got)
	}
	cb.RecordSuccess()
	if got := cb.State(); got != BreakerClosed {
		t.Fatalf("state after %d successes = %v, want CLOSED", cfg.SuccessThreshold, got)
	}

	// A success while closed forgets accumulated failures.
	trip(cb, cfg.FailureThreshold-1)
	cb.RecordSuccess()
	trip(cb, cfg.FailureThreshold-1)
	if got := cb.State(); got != BreakerClosed {
		t.Fatalf("state = %v, want CLOSED after success cleared the failure count", got)
	}
}

func TestCircuitBreakerHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "binance",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Cooldown:         10 * time.Millisecond,
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	if !cb.Allow() {
		t.Fatal("breaker did not admit a trial request after cooldown")
	}

	// A single failure during the trial reopens the breaker for a
	// full cooldown.
	cb.RecordFailure()
	if got := cb.State(); got != BreakerOpen {
		t.Fatalf("state after half-open failure = %v, want OPEN", got)
	}
	if cb.Allow() {
		t.Fatal("reopened breaker admitted a request before a fresh cooldown")
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "binance", FailureThreshold: 1, Cooldown: time.Hour})
	cb.RecordFailure()
	if cb.Allow() {
		t.Fatal("open breaker admitted a request")
	}

	cb.Reset()
	if got := cb.State(); got != BreakerClosed {
		t.Fatalf("state after reset = %v, want CLOSED", got)
	}
	if !cb.Allow() {
		t.Fatal("reset breaker must admit requests")
	}
}

func TestBreakerStateString(t *testing.T) {
	tests := []struct {
		state BreakerState
		want  string
	}{
		{BreakerClosed, "CLOSED"},
		{BreakerOpen, "OPEN"},
		{BreakerHalfOpen, "HALF_OPEN"},
		{BreakerState(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("BreakerState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
