// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/visionchain/visiond/internal/mempool"
)

// bucketIdleTTL bounds how long an IP's token bucket is retained after
// its last request. A quiet peer's bucket is evicted rather than kept
// forever, so an idle node doesn't leak memory across a long uptime.
const bucketIdleTTL = 10 * time.Minute

// bucket is a simple token bucket: tokens refill continuously at
// refillPerSec and are capped at capacity.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64
	updatedAt  time.Time
}

func newBucket(capacity, refillPerSec float64) *bucket {
	return &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, updatedAt: time.Now()}
}

func (b *bucket) take(now time.Time) (allowed bool, remaining int, resetAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.updatedAt).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.updatedAt = now
	}

	allowed = b.tokens >= 1
	if allowed {
		b.tokens--
	}

	remaining = int(b.tokens)
	if remaining < 0 {
		remaining = 0
	}

	secsToFull := (b.capacity - b.tokens) / b.refillRate
	resetAt = now.Add(time.Duration(secsToFull * float64(time.Second)))
	return allowed, remaining, resetAt
}

// Limiter enforces a per-source-IP token bucket over inbound requests
// (HELLO attempts, RPC-style calls, or any other rate-limited surface),
// backed by a ttlcache so a quiet IP's bucket ages out on its own.
type Limiter struct {
	capacity float64
	refill   float64
	buckets  *ttlcache.Cache[string, *bucket]
}

// NewLimiter constructs a Limiter with the given per-IP capacity and
// refill rate (tokens per second).
func NewLimiter(capacity, refillPerSec float64) *Limiter {
	l := &Limiter{
		capacity: capacity,
		refill:   refillPerSec,
		buckets:  ttlcache.New[string, *bucket](ttlcache.WithTTL[string, *bucket](bucketIdleTTL)),
	}
	go l.buckets.Start()
	return l
}

// Allow checks and consumes one token for ip, returning whether the
// request is admitted along with the headers a caller should attach to
// its response (rate-limited or not) so clients can self-throttle.
func (l *Limiter) Allow(ip string) (bool, mempool.RateLimitHeaders) {
	item := l.buckets.Get(ip)
	var b *bucket
	if item == nil {
		b = newBucket(l.capacity, l.refill)
		l.buckets.Set(ip, b, ttlcache.DefaultTTL)
	} else {
		b = item.Value()
	}

	allowed, remaining, resetAt := b.take(time.Now())
	headers := mempool.BuildRateLimitHeaders(int(l.capacity), remaining, resetAt)
	return allowed, headers
}

// Close stops the bucket-eviction background goroutine.
func (l *Limiter) Close() {
	l.buckets.Stop()
}
