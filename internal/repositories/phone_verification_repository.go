package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/sonjunho2/tok-friends/internal/models"
)

// PhoneVerificationRepository is the verification store for in-flight
// phone OTP requests.
type PhoneVerificationRepository interface {
	Create(ctx context.Context, v *models.PhoneVerification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PhoneVerification, error)

	// IncrementAttempts bumps the attempt counter in a single UPDATE
	// and returns the new count. Two concurrent wrong-code submissions
	// therefore never observe the same counter value.
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)

	// MarkVerified sets verified_at once; later calls are no-ops.
	MarkVerified(ctx context.Context, id uuid.UUID) error

	// LinkUser attaches the resolved user and completes the request.
	// completed_at keeps its first value on replays.
	LinkUser(ctx context.Context, id, userID uuid.UUID) error

	// DeleteStale removes this phone's unverified requests that
	// expired before the cutoff. Garbage collection on new requests,
	// not a correctness requirement.
	DeleteStale(ctx context.Context, phone, countryCode string, before time.Time) error

	// CleanupExpired drops requests that never completed and whose
	// expiry is more than a day in the past.
	CleanupExpired(ctx context.Context) error
}

type phoneVerificationRepo struct {
	db DB
}

func NewPhoneVerificationRepository(db DB) PhoneVerificationRepository {
	return &phoneVerificationRepo{db: db}
}

func (r *phoneVerificationRepo) Create(ctx context.Context, v *models.PhoneVerification) error {
	q := `
        INSERT INTO phone_verifications
            (id, phone, country_code, code_hash, attempts, expires_at, created_at)
        VALUES ($1, $2, $3, $4, 0, $5, NOW())
    `
	_, err := r.db.Exec(ctx, q, v.ID, v.Phone, v.CountryCode, v.CodeHash, v.ExpiresAt)
	return err
}

func (r *phoneVerificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PhoneVerification, error) {
	q := `
        SELECT id, phone, country_code, code_hash, attempts, expires_at,
               verified_at, user_id, completed_at, created_at
        FROM phone_verifications
        WHERE id = $1
    `
	row := r.db.QueryRow(ctx, q, id)
	var rec models.PhoneVerification
	err := row.Scan(
		&rec.ID,
		&rec.Phone,
		&rec.CountryCode,
		&rec.CodeHash,
		&rec.Attempts,
		&rec.ExpiresAt,
		&rec.VerifiedAt,
		&rec.UserID,
		&rec.CompletedAt,
		&rec.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *phoneVerificationRepo) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	q := `
        UPDATE phone_verifications
        SET attempts = attempts + 1
        WHERE id = $1
        RETURNING attempts
    `
	var attempts int
	if err := r.db.QueryRow(ctx, q, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *phoneVerificationRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	q := `
        UPDATE phone_verifications
        SET verified_at = NOW()
        WHERE id = $1 AND verified_at IS NULL
    `
	_, err := r.db.Exec(ctx, q, id)
	return err
}

func (r *phoneVerificationRepo) LinkUser(ctx context.Context, id, userID uuid.UUID) error {
	q := `
        UPDATE phone_verifications
        SET user_id = $2,
            completed_at = COALESCE(completed_at, NOW())
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, q, id, userID)
	return err
}

func (r *phoneVerificationRepo) DeleteStale(ctx context.Context, phone, countryCode string, before time.Time) error {
	q := `
        DELETE FROM phone_verifications
        WHERE phone = $1
          AND country_code = $2
          AND verified_at IS NULL
          AND expires_at < $3
    `
	_, err := r.db.Exec(ctx, q, phone, countryCode, before)
	return err
}

func (r *phoneVerificationRepo) CleanupExpired(ctx context.Context) error {
	q := `
        DELETE FROM phone_verifications
        WHERE completed_at IS NULL
          AND expires_at < NOW() - INTERVAL '24 hours'
    `
	_, err := r.db.Exec(ctx, q)
	return err
}
