package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
)

// Key prefixes for the OTP request counters. The rate limiter builds
// keys from these so the table can be inspected per dimension.
const (
	RateLimitKeyOtpGlobal      = "otp:global"
	RateLimitKeyOtpIPPrefix    = "otp:ip:"
	RateLimitKeyOtpPhonePrefix = "otp:phone:"
)

// RateLimitRepository backs the pre-SMS throttle on OTP requests with
// windowed counters in the rate_limit_attempts table. Counters reset
// lazily: an expired row is recycled by the next increment rather than
// waiting for the nightly cleanup.
type RateLimitRepository interface {
	// IncrementAndCheck bumps the counter for key inside a single
	// upsert and reports whether the new count is still within limit.
	// A false return means the caller must not send the SMS.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// CleanupExpired drops counters whose window has closed.
	CleanupExpired(ctx context.Context) error
}

type rateLimitRepository struct {
	db DB
}

func NewRateLimitRepository(db DB) RateLimitRepository {
	return &rateLimitRepository{db: db}
}

func (r *rateLimitRepository) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	// Insert-or-bump in one statement so concurrent OTP requests for
	// the same phone or IP never race the counter. An expired row
	// restarts at 1 with a fresh window.
	query := `
        INSERT INTO rate_limit_attempts (key, attempt_count, expires_at)
        VALUES ($1, 1, NOW() + $2::interval)
        ON CONFLICT (key) DO UPDATE
        SET attempt_count = CASE
            WHEN rate_limit_attempts.expires_at < NOW() THEN 1
            ELSE rate_limit_attempts.attempt_count + 1
        END,
        expires_at = CASE
            WHEN rate_limit_attempts.expires_at < NOW() THEN NOW() + $2::interval
            ELSE rate_limit_attempts.expires_at
        END
        RETURNING attempt_count;
    `

	var currentCount int
	err := r.db.QueryRow(ctx, query, key, window).Scan(&currentCount)
	if err != nil && err != pgx.ErrNoRows {
		return false, err
	}

	return currentCount <= limit, nil
}

func (r *rateLimitRepository) CleanupExpired(ctx context.Context) error {
	query := `DELETE FROM rate_limit_attempts WHERE expires_at < NOW()`
	_, err := r.db.Exec(ctx, query)
	return err
}
