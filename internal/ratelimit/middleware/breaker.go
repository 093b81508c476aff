package middleware

import "sync"

// breaker counts consecutive primary store errors. After failureThreshold
// errors checks go to the fallback store until successThreshold probes of
// the primary succeed in a row.
type breaker struct {
	mu               sync.Mutex
	open             bool
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
}

func newBreaker(failureThreshold, successThreshold int) *breaker {
	return &breaker{failureThreshold: failureThreshold, successThreshold: successThreshold}
}

func (b *breaker) isOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// recordFailure reports whether this failure opened the circuit.
func (b *breaker) recordFailure() (opened bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.successes = 0
	if !b.open && b.failures >= b.failureThreshold {
		b.open = true
		return true
	}
	return false
}

// recordSuccess reports whether this success closed the circuit.
func (b *breaker) recordSuccess() (closed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		b.failures = 0
		return false
	}
	b.successes++
	if b.successes >= b.successThreshold {
		b.open = false
		b.failures = 0
		b.successes = 0
		return true
	}
	return false
}
