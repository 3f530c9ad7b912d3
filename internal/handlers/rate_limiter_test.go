package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// exhaust uses up the limit for ip and reports whether the next attempt is refused
func exhaust(rl *RateLimiter, ip string, limit int) bool {
	for range limit {
		rl.Allow(ip)
	}
	return !rl.Allow(ip)
}

// checks that each key gets its own budget inside a window
func TestRateLimiter_PerKeyBudget(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	defer rl.Stop()

	if !exhaust(rl, "10.0.0.1", 2) {
		t.Fatalf("third attempt from 10.0.0.1 should be refused")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatalf("a different key must not share the budget")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("10.0.0.1 stays refused until the window resets")
	}
}

// checks that the ticker starts a fresh window for refused keys
func TestRateLimiter_WindowReset(t *testing.T) {
	rl := NewRateLimiter(1, 30*time.Millisecond)
	defer rl.Stop()

	if !exhaust(rl, "10.0.0.1", 1) {
		t.Fatalf("second attempt should be refused")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !rl.Allow("10.0.0.1") {
		if time.Now().After(deadline) {
			t.Fatalf("window never reset")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// checks that reset forgets every key at once
func TestRateLimiter_ResetForgetsAllKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	ips := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	for _, ip := range ips {
		exhaust(rl, ip, 1)
	}
	rl.reset()
	for _, ip := range ips {
		if !rl.Allow(ip) {
			t.Fatalf("%s should be allowed after reset", ip)
		}
	}
}

// checks that Stop ends the cleanup goroutine, so counts no longer reset
func TestRateLimiter_StopEndsCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	rl.Stop()

	select {
	case <-rl.done:
	default:
		t.Fatalf("cleanup goroutine still running after Stop")
	}

	exhaust(rl, "10.0.0.1", 1)
	time.Sleep(50 * time.Millisecond)
	if rl.Allow("10.0.0.1") {
		t.Fatalf("a stopped limiter must not reset its window")
	}

	// a second Stop is a no-op
	rl.Stop()
}

// checks that concurrent attempts never exceed the limit
func TestRateLimiter_ConcurrentAllowsExactlyLimit(t *testing.T) {
	const limit, callers = 3, 20
	rl := NewRateLimiter(limit, time.Hour)
	defer rl.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("10.0.0.1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Fatalf("want %d allowed attempts, got %d", limit, allowed)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	if got := clientIP(req); got != "10.0.0.7" {
		t.Errorf("Expected 10.0.0.7, got %q", got)
	}

	req.RemoteAddr = "no-port"
	if got := clientIP(req); got != "no-port" {
		t.Errorf("Expected raw RemoteAddr, got %q", got)
	}
}
