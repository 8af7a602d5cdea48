package ratelimit

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()

	tests := []struct {
		tool  string
		burst int
		every time.Duration
	}{
		{ToolResolve, 10, time.Second},
		{ToolStatus, 5, 3 * time.Second},
		{ToolHistory, 10, time.Second},
	}

	if len(limiters) != len(tests) {
		t.Errorf("got %d limiters, want %d", len(limiters), len(tests))
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			limiter, ok := limiters[tt.tool]
			if !ok {
				t.Fatalf("missing rate limiter for tool: %s", tt.tool)
			}
			if limiter.Burst() != tt.burst {
				t.Errorf("burst = %d, want %d", limiter.Burst(), tt.burst)
			}
			if limiter.Limit() != rate.Every(tt.every) {
				t.Errorf("limit = %v, want one per %v", limiter.Limit(), tt.every)
			}
		})
	}
}

func TestCheckLimit_UnknownTool(t *testing.T) {
	limiters := NewToolLimiters()
	for i := 0; i < 100; i++ {
		if err := CheckLimit(limiters, "unknown_tool"); err != nil {
			t.Fatalf("unexpected error for unknown tool: %v", err)
		}
	}
}

func TestCheckLimit_BurstThenRefill(t *testing.T) {
	limiters := NewToolLimiters()
	now := time.Now()

	for i := 0; i < 5; i++ {
		if err := checkLimitAt(limiters, ToolStatus, now); err != nil {
			t.Fatalf("call %d within burst rejected: %v", i, err)
		}
	}

	err := checkLimitAt(limiters, ToolStatus, now)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after burst exhaustion, got %v", err)
	}

	if err := checkLimitAt(limiters, ToolResolve, now); err != nil {
		t.Errorf("spineml_resolve should have its own budget: %v", err)
	}

	if err := checkLimitAt(limiters, ToolStatus, now.Add(3*time.Second)); err != nil {
		t.Errorf("expected a token after one interval: %v", err)
	}
	if err := checkLimitAt(limiters, ToolStatus, now.Add(3*time.Second)); err == nil {
		t.Error("only one token should have been refilled")
	}
}
