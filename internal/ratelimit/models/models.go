package models

import "time"

// Class names a group of routes sharing one limit.
type Class string

// ClassVerify covers the public credential verification route.
const ClassVerify Class = "verify"

// Policy is a fixed window allowance.
type Policy struct {
	Requests int
	Window   time.Duration
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds, rounded up. Zero when allowed.
	RetryAfter int
}

// NewResult derives the result for a window holding count requests.
func NewResult(count int, policy Policy, resetAt, now time.Time) *Result {
	allowed := count <= policy.Requests
	remaining := policy.Requests - count
	if remaining < 0 {
		remaining = 0
	}
	res := &Result{
		Allowed:   allowed,
		Limit:     policy.Requests,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !allowed {
		res.RetryAfter = ceilSeconds(resetAt.Sub(now))
	}
	return res
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
