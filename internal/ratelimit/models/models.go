// Package models holds the request throttling vocabulary.
package models

import (
	"net/http"
	"time"
)

// Class groups routes that share a limit.
type Class string

const (
	// ClassRead covers queries such as status, registry and balance reads.
	ClassRead Class = "read"
	// ClassWrite covers state changes: bids, credit exchange, registry edits.
	ClassWrite Class = "write"
)

// ClassForMethod treats safe HTTP methods as reads and everything else as
// writes.
func ClassForMethod(method string) Class {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	}
	return ClassWrite
}

// Limit allows Requests per sliding Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of one check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until ResetAt, never below one.
func (r Result) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Key builds the bucket key for a caller and class.
func Key(class Class, subject string) string {
	return "ratelimit:" + string(class) + ":" + subject
}
