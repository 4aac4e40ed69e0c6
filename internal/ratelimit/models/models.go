package models

import "time"

// Policy is a sliding-window limit: at most Limit requests per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result describes the outcome of one limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds; set only when not allowed
}

// ExceededResponse is written with 429 Too Many Requests.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// RetryAfterSeconds rounds d up to whole seconds, never below one.
func RetryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
