package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if tb.Allow() {
		t.Error("request beyond capacity should be denied")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)

	if !tb.Allow() {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(30 * time.Millisecond)
	if !tb.Allow() {
		t.Error("bucket should have refilled")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Minute)
	tb.Allow()
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	tb.Reset()
	if !tb.Allow() {
		t.Error("reset should refill the bucket")
	}
}

func TestTokenBucketWaitCancellation(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tb.Wait(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("Wait should return promptly after cancellation")
	}
}
