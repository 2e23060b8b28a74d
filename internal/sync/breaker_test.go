package sync

import (
	"testing"
	"time"

	"campaign-sync-service/internal/config"
)

func testBreakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		FailureThreshold:    5,
		ResetTimeout:        "60s",
		HalfOpenMaxAttempts: 3,
	}
}

func TestCircuitBreaker_OpensAtFailureThreshold(t *testing.T) {
	b := NewCircuitBreaker("reddit", testBreakerConfig())

	for i := 0; i < 4; i++ {
		b.RecordFailure()
		if got := b.GetState(); got != BreakerClosed {
			t.Fatalf("after %d failures state = %s, want closed", i+1, got)
		}
		if !b.CanExecute() {
			t.Fatalf("breaker refused execution while closed")
		}
	}

	b.RecordFailure()
	if got := b.GetState(); got != BreakerOpen {
		t.Fatalf("after 5 failures state = %s, want open", got)
	}
	if b.CanExecute() {
		t.Error("open breaker allowed execution before reset timeout")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewCircuitBreaker("reddit", testBreakerConfig())

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	b.RecordSuccess()

	// Four more failures should not trip the breaker.
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	if got := b.GetState(); got != BreakerClosed {
		t.Fatalf("state = %s, want closed after success reset the counter", got)
	}
}

func TestCircuitBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	b := NewCircuitBreaker("reddit", testBreakerConfig())

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	if b.CanExecute() {
		t.Fatal("open breaker allowed execution immediately")
	}

	current = current.Add(59 * time.Second)
	if b.CanExecute() {
		t.Fatal("breaker transitioned before reset timeout elapsed")
	}

	current = current.Add(time.Second)
	if !b.CanExecute() {
		t.Fatal("breaker did not probe after reset timeout")
	}
	if got := b.GetState(); got != BreakerHalfOpen {
		t.Fatalf("state = %s, want half-open", got)
	}
}

func TestCircuitBreaker_HalfOpenSuccessCloses(t *testing.T) {
	b := NewCircuitBreaker("reddit", testBreakerConfig())

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	current = current.Add(61 * time.Second)
	if !b.CanExecute() {
		t.Fatal("expected probe after timeout")
	}

	b.RecordSuccess()
	if got := b.GetState(); got != BreakerClosed {
		t.Fatalf("state = %s, want closed after successful probe", got)
	}
	stats := b.GetStats()
	if stats.Failures != 0 || stats.HalfOpenAttempts != 0 {
		t.Errorf("counters not reset: failures=%d halfOpenAttempts=%d", stats.Failures, stats.HalfOpenAttempts)
	}
}

func TestCircuitBreaker_HalfOpenReopensAfterMaxAttempts(t *testing.T) {
	b := NewCircuitBreaker("reddit", testBreakerConfig())

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	current = current.Add(61 * time.Second)
	if !b.CanExecute() {
		t.Fatal("expected probe after timeout")
	}

	// Three failed probes re-open the circuit.
	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	if got := b.GetState(); got != BreakerOpen {
		t.Fatalf("state = %s, want open after failed probes", got)
	}
	if b.CanExecute() {
		t.Error("re-opened breaker allowed execution")
	}
}

func TestCircuitBreaker_Defaults(t *testing.T) {
	b := NewCircuitBreaker("mock", config.BreakerConfig{})

	if b.failureThreshold != 5 {
		t.Errorf("failureThreshold = %d, want 5", b.failureThreshold)
	}
	if b.resetTimeout != 60*time.Second {
		t.Errorf("resetTimeout = %s, want 60s", b.resetTimeout)
	}
	if b.halfOpenMaxAttempts != 3 {
		t.Errorf("halfOpenMaxAttempts = %d, want 3", b.halfOpenMaxAttempts)
	}
}

func TestBreakerRegistry_LazyPerPlatform(t *testing.T) {
	r := NewBreakerRegistry(testBreakerConfig())

	reddit := r.Get("reddit")
	if reddit == nil {
		t.Fatal("Get returned nil breaker")
	}
	if r.Get("reddit") != reddit {
		t.Error("Get returned a different instance for the same platform")
	}
	if r.Get("mock") == reddit {
		t.Error("platforms share one breaker instance")
	}

	// Tripping one platform must not affect the other.
	for i := 0; i < 5; i++ {
		reddit.RecordFailure()
	}
	if got := r.Get("mock").GetState(); got != BreakerClosed {
		t.Errorf("mock breaker state = %s, want closed", got)
	}

	stats := r.Stats()
	if len(stats) != 2 {
		t.Fatalf("Stats returned %d entries, want 2", len(stats))
	}
}

func TestBreakerRegistry_Reset(t *testing.T) {
	r := NewBreakerRegistry(testBreakerConfig())

	breaker := r.Get("reddit")
	for i := 0; i < 5; i++ {
		breaker.RecordFailure()
	}

	r.Reset()
	if got := r.Get("reddit").GetState(); got != BreakerClosed {
		t.Errorf("state after reset = %s, want closed", got)
	}
}
