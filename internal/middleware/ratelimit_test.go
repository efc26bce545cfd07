package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowsUpToMax(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Max: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		if !rl.Allow("key") {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}
}

func TestRateLimiter_BlocksAfterMax(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})

	rl.Allow("key")
	rl.Allow("key")
	if rl.Allow("key") {
		t.Fatal("request over the limit allowed")
	}
}

func TestRateLimiter_DifferentKeysIndependent(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})

	if !rl.Allow("a") {
		t.Fatal("first key denied")
	}
	if !rl.Allow("b") {
		t.Fatal("second key denied, limits should be per key")
	}
	if rl.Allow("a") {
		t.Fatal("first key allowed over its limit")
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Max: 1, Window: 20 * time.Millisecond})

	if !rl.Allow("key") {
		t.Fatal("first request denied")
	}
	if rl.Allow("key") {
		t.Fatal("second request allowed within window")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.Allow("key") {
		t.Fatal("request denied after window reset")
	}
}

func TestRateLimiter_SyncConfig(t *testing.T) {
	rl := NewSyncRateLimiter()

	for i := 0; i < 6; i++ {
		if !rl.Allow("user:u1") {
			t.Fatalf("sync request %d denied", i+1)
		}
	}
	if rl.Allow("user:u1") {
		t.Fatal("seventh sync in a minute allowed")
	}
}

func TestRateLimiter_AuthConfig(t *testing.T) {
	rl := NewAuthRateLimiter()

	for i := 0; i < 10; i++ {
		if !rl.Allow("ip:127.0.0.1") {
			t.Fatalf("auth request %d denied", i+1)
		}
	}
	if rl.Allow("ip:127.0.0.1") {
		t.Fatal("eleventh auth attempt in a minute allowed")
	}
}
