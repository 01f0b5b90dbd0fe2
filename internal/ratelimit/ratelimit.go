package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates fetches per account so a refresh fan-out cannot hammer
// one backend.
type Limiter interface {
	Allow(accountID string) bool
}

// InMemoryLimiter is an implementation of Limiter stored in memory
type InMemoryLimiter struct {
	accounts map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit // Rate of adding tokens (e.g., 1 token every 5 seconds)
	b        int        // Bucket size (e.g., can perform 3 fetches in a row)
}

// NewInMemoryLimiter creates a new rate limiter
// Example: NewInMemoryLimiter(1, 5*time.Second, 3) -> allows 1 fetch every 5 seconds, burst of 3
func NewInMemoryLimiter(requests int, per time.Duration, burst int) Limiter {
	return &InMemoryLimiter{
		accounts: make(map[string]*rate.Limiter),
		r:        rate.Every(per / time.Duration(requests)),
		b:        burst,
	}
}

// Allow checks if a fetch for the account may proceed right now
func (l *InMemoryLimiter) Allow(accountID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.accounts[accountID]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.accounts[accountID] = limiter
	}

	return limiter.Allow()
}
