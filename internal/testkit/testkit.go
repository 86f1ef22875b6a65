// Package testkit provides in-memory stores, a scripted AI client, and
// deterministic clock/id/seed helpers for session engine tests.
package testkit

import (
	"fmt"
	"sync"
	"time"
)

// Clock returns a fixed-time clock function.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// IDGenerator returns sequential ids with the given prefix: prefix-1,
// prefix-2, and so on.
func IDGenerator(prefix string) func() (string, error) {
	var mu sync.Mutex
	counter := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter), nil
	}
}

// SeedSource returns a seed function that always yields the same seed.
func SeedSource(seed int64) func() int64 {
	return func() int64 { return seed }
}
