package db

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	backoffBase = 500 * time.Millisecond
	backoffCap  = 10 * time.Second
)

// Backoff returns the wait before retry number attempt (0-based):
// 500ms, 1s, 2s ... capped at 10s, plus up to 250ms of jitter.
func Backoff(attempt int) time.Duration {
	d := float64(backoffBase) * math.Pow(2, float64(attempt))
	if d > float64(backoffCap) {
		d = float64(backoffCap)
	}
	delay := time.Duration(d)

	// small jitter (0–250ms) to avoid thundering herd
	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}

// Connect opens the pool, retrying while the database is not reachable yet
// (e.g. compose starting both containers at once).
func Connect(ctx context.Context, log *slog.Logger, dbURL string, maxConns int32, attempts int) (*pgxpool.Pool, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		pool, err := NewPool(ctx, dbURL, maxConns)
		if err == nil {
			return pool, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		wait := Backoff(attempt)
		log.Warn("database not ready, retrying", "attempt", attempt+1, "of", attempts, "wait", wait, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}
