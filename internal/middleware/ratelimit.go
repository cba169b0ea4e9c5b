// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// window is the request history of one client.
type window struct {
	mu    sync.Mutex
	times []time.Time
}

// RateLimiter limits requests per client IP over a sliding window. It guards
// the credential forms, which the catalog API does not throttle.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
	stopCh  chan struct{}
	once    sync.Once

	trustProxy bool
}

// NewRateLimiter allows limit requests per period and sweeps idle clients
// in the background until Stop is called.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.sweep(time.Now())
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// TrustProxy makes the limiter key on the address reported by a reverse
// proxy instead of the connection address. Enable it only when every
// request arrives through that proxy.
func (rl *RateLimiter) TrustProxy() { rl.trustProxy = true }

// Stop terminates the background sweeper. It is safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// allow records a request from key and reports whether it is within the
// limit. When it is not, the returned duration is how long until a slot frees.
func (rl *RateLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	rl.mu.Lock()
	w, ok := rl.clients[key]
	if !ok {
		w = &window{}
		rl.clients[key] = w
	}
	rl.mu.Unlock()

	cutoff := now.Add(-rl.period)

	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.times[:0]
	for _, ts := range w.times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.times = kept

	if len(w.times) >= rl.limit {
		return false, w.times[0].Sub(cutoff)
	}
	w.times = append(w.times, now)
	return true, 0
}

// sweep drops clients with no request inside the window.
func (rl *RateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-rl.period)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.clients {
		w.mu.Lock()
		idle := len(w.times) == 0 || !w.times[len(w.times)-1].After(cutoff)
		w.mu.Unlock()
		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware rate-limits state-changing requests by client IP. Page loads
// pass through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		ok, wait := rl.allow(clientIP(r, rl.trustProxy), time.Now())
		if !ok {
			secs := int(wait.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address from RemoteAddr. Behind a trusted
// proxy it prefers the rightmost X-Forwarded-For entry, the one the proxy
// appended, then X-Real-IP.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			i := strings.LastIndex(xff, ",")
			if last := strings.TrimSpace(xff[i+1:]); last != "" {
				return last
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
