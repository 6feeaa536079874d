package ratelimiter

import (
	"sync"
	"time"
)

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

// FixedWindowLimiter counts requests per client within a fixed window.
// Callback routes sit behind it so a misbehaving gateway redirect loop
// cannot hammer the verify endpoint.
type FixedWindowLimiter struct {
	mu      sync.RWMutex
	clients map[string]int
	limit   int
	window  time.Duration
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowLimiter {
	rl := &FixedWindowLimiter{
		clients: make(map[string]int),
		limit:   limit,
		window:  window,
	}
	go rl.sweep()
	return rl
}

func (rl *FixedWindowLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	for range ticker.C {
		rl.mu.Lock()
		rl.clients = make(map[string]int)
		rl.mu.Unlock()
	}
}

// Allow reports whether the client may proceed and, if not, how long until
// the window resets.
func (rl *FixedWindowLimiter) Allow(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.clients[client] >= rl.limit {
		return false, rl.window
	}
	rl.clients[client]++
	return true, 0
}
