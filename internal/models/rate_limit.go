package models

import "time"

// Rate-limit action types.
const (
	ActionLoginAttempt = "login_attempt"
	ActionJoinAttempt  = "join_attempt"
)

// RateLimitBucket is a fixed-window attempt counter keyed (IP, action type).
// Created on first attempt, updated thereafter; stale buckets are swept by the
// background cleanup rather than deleted inline.
type RateLimitBucket struct {
	ID           int64
	IPAddress    string
	ActionType   string
	AttemptCount int
	WindowStart  time.Time
}

// RateLimitDecision is the outcome of one counted attempt against a bucket.
type RateLimitDecision struct {
	Allowed     bool
	Attempts    int
	WindowStart time.Time
}
