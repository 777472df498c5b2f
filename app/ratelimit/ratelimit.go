package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/vibast-solutions/ms-go-slots/app/auth"
	"github.com/vibast-solutions/ms-go-slots/app/types"
)

// Store keeps one token bucket per caller with periodic cleanup of idle
// entries.
type Store struct {
	mu           sync.Mutex
	entries      map[string]*storeEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type storeEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewStore(rps float64, burst int) *Store {
	return &Store{
		entries:      make(map[string]*storeEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
}

func (s *Store) Get(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.limiter
	}

	limiter := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &storeEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func (s *Store) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, key)
		}
	}
}

// StartJanitor removes idle entries until the context is cancelled.
func (s *Store) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupEvery)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Middleware limits requests per caller identity: the authenticated
// user id when present, the remote IP otherwise. Must run after the
// auth middleware to see the user id.
func Middleware(store *Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			key, ok := auth.UserIDFromContext(ctx)
			if !ok {
				key = ctx.RealIP()
			}

			if !store.Get(key).Allow() {
				return ctx.JSON(http.StatusTooManyRequests, &types.ErrorResponse{Error: "rate limit exceeded"})
			}

			return next(ctx)
		}
	}
}
