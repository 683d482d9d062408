package repositories

import (
	"context"
	"time"
)

// RateWindow is a counter's state right after a hit.
type RateWindow struct {
	Count   int
	ResetAt time.Time
}

// RateLimitRepository keeps fixed-window counters in rate_limit_attempts.
type RateLimitRepository interface {
	// Hit bumps key's counter, opening a fresh window of the given length
	// when none is live, and returns the post-increment state.
	Hit(ctx context.Context, key string, window time.Duration) (RateWindow, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type rateLimitRepository struct {
	db DB
}

func NewRateLimitRepository(db DB) RateLimitRepository {
	return &rateLimitRepository{db: db}
}

func (r *rateLimitRepository) Hit(ctx context.Context, key string, window time.Duration) (RateWindow, error) {
	var w RateWindow
	err := r.db.QueryRow(ctx, `
        INSERT INTO rate_limit_attempts AS rl (key, attempt_count, expires_at)
        VALUES ($1, 1, NOW() + $2::interval)
        ON CONFLICT (key) DO UPDATE SET
            attempt_count = CASE WHEN rl.expires_at <= NOW() THEN 1 ELSE rl.attempt_count + 1 END,
            expires_at    = CASE WHEN rl.expires_at <= NOW() THEN NOW() + $2::interval ELSE rl.expires_at END
        RETURNING attempt_count, expires_at
    `, key, window).Scan(&w.Count, &w.ResetAt)
	return w, err
}

func (r *rateLimitRepository) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM rate_limit_attempts WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
