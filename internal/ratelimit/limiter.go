// Package ratelimit throttles the MCP tool handlers, one token bucket per tool.
package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by CheckLimit when a tool's budget is spent.
var ErrRateLimited = errors.New("rate limit exceeded")

// Tool names with a budget.
const (
	ToolResolve = "spineml_resolve"
	ToolStatus  = "spineml_status"
	ToolHistory = "spineml_history"
)

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*rate.Limiter

// NewToolLimiters creates the default per-tool limiters.
// spineml_status hashes every input file, so it gets the tightest budget.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		ToolResolve: rate.NewLimiter(rate.Limit(1), 10),            // 60/minute, burst 10
		ToolStatus:  rate.NewLimiter(rate.Every(3*time.Second), 5), // 20/minute, burst 5
		ToolHistory: rate.NewLimiter(rate.Limit(1), 10),            // 60/minute, burst 10
	}
}

// CheckLimit takes one token for toolName. Tools without a limiter are
// always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	return checkLimitAt(limiters, toolName, time.Now())
}

func checkLimitAt(limiters ToolLimiters, toolName string, now time.Time) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if !limiter.AllowN(now, 1) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, toolName)
	}
	return nil
}
