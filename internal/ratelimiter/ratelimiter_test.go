package ratelimiter

import (
	"testing"
	"time"
)

func TestMemoryLimiter_TryConsume(t *testing.T) {
	cfg := BucketConfig{Capacity: 3, Window: time.Minute}

	tests := []struct {
		name    string
		attempt int
		want    bool
	}{
		{"first attempt allowed", 1, true},
		{"second attempt allowed", 2, true},
		{"third attempt allowed", 3, true},
		{"fourth attempt rejected", 4, false},
		{"fifth attempt rejected", 5, false},
	}

	m := newMemoryLimiter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.tryConsume("1.2.3.4", "login", cfg)
			if got != tt.want {
				t.Errorf("attempt %d: tryConsume() = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestMemoryLimiter_WindowExpiry(t *testing.T) {
	cfg := BucketConfig{Capacity: 1, Window: time.Minute}
	m := newMemoryLimiter()

	if !m.tryConsume("1.2.3.4", "login", cfg) {
		t.Fatal("first attempt should be allowed")
	}
	if m.tryConsume("1.2.3.4", "login", cfg) {
		t.Fatal("second attempt within window should be rejected")
	}

	// Simulate window expiry by rewriting the stored window directly.
	m.mu.Lock()
	m.windows["login:1.2.3.4"].expiresAt = time.Now().Add(-time.Second)
	m.mu.Unlock()

	if !m.tryConsume("1.2.3.4", "login", cfg) {
		t.Fatal("attempt after window expiry should be allowed")
	}
}

func TestMemoryLimiter_IndependentIPs(t *testing.T) {
	cfg := BucketConfig{Capacity: 1, Window: time.Minute}
	m := newMemoryLimiter()

	if !m.tryConsume("1.1.1.1", "login", cfg) {
		t.Fatal("first IP's first attempt should be allowed")
	}
	if !m.tryConsume("2.2.2.2", "login", cfg) {
		t.Fatal("second IP's first attempt should be allowed independently")
	}
}

func TestMemoryLimiter_Reset(t *testing.T) {
	cfg := BucketConfig{Capacity: 1, Window: time.Minute}
	m := newMemoryLimiter()

	m.tryConsume("1.2.3.4", "login", cfg)
	m.reset("1.2.3.4", "login")

	if !m.tryConsume("1.2.3.4", "login", cfg) {
		t.Fatal("attempt after reset should be allowed")
	}
}

func TestMemoryLimiter_IndependentBuckets(t *testing.T) {
	loginCfg := BucketConfig{Capacity: 1, Window: time.Minute}
	registerCfg := BucketConfig{Capacity: 1, Window: 10 * time.Minute}
	m := newMemoryLimiter()

	if !m.tryConsume("1.2.3.4", "login", loginCfg) {
		t.Fatal("login bucket first attempt should be allowed")
	}
	if !m.tryConsume("1.2.3.4", "register", registerCfg) {
		t.Fatal("register bucket is independent of login bucket")
	}
}
