package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/sonjunho2/tok-friends/internal/models"
)

// UserRepository is the credential store: canonical User rows keyed by
// id, unique email, and unique phone hash.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhoneHash(ctx context.Context, phoneHash string) (*models.User, error)

	// GetAuthUser loads a user together with its profile row for
	// auth responses.
	GetAuthUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	// CreatePhoneUser inserts the user and its profile and marks the
	// verification request completed, all in one transaction. A zero
	// verificationID skips the request update (auth bypass mode).
	// Unique-violation errors surface unwrapped so callers can detect
	// the concurrent-creation race via IsUniqueViolation.
	CreatePhoneUser(ctx context.Context, u *models.User, p *models.Profile, verificationID uuid.UUID) error
}

type userRepo struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepo{db: db}
}

func baseSelectUser() string {
	return `
        SELECT id, email, password_hash, phone_hash, display_name, dob, gender,
               provider, region1, region2, points_balance, created_at
        FROM users
    `
}

func (r *userRepo) scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.PhoneHash,
		&u.DisplayName,
		&u.DOB,
		&u.Gender,
		&u.Provider,
		&u.Region1,
		&u.Region2,
		&u.PointsBalance,
		&u.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (
            id, email, password_hash, phone_hash, display_name, dob, gender,
            provider, region1, region2, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
    `,
		u.ID, u.Email, u.PasswordHash, u.PhoneHash, u.DisplayName, u.DOB, u.Gender,
		u.Provider, u.Region1, u.Region2,
	)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE id=$1", id)
	return r.scanUser(row)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE email=$1", email)
	return r.scanUser(row)
}

func (r *userRepo) GetByPhoneHash(ctx context.Context, phoneHash string) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE phone_hash=$1", phoneHash)
	return r.scanUser(row)
}

func (r *userRepo) GetAuthUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
        SELECT u.id, u.email, u.password_hash, u.phone_hash, u.display_name, u.dob,
               u.gender, u.provider, u.region1, u.region2, u.points_balance, u.created_at,
               p.nickname, p.bio, p.headline, p.avatar_uri, p.interests, p.badges
        FROM users u
        LEFT JOIN profiles p ON p.user_id = u.id
        WHERE u.id = $1
    `, id)

	var u models.User
	var nickname *string
	var bio, headline, avatarURI *string
	var interests, badges []string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.PhoneHash,
		&u.DisplayName,
		&u.DOB,
		&u.Gender,
		&u.Provider,
		&u.Region1,
		&u.Region2,
		&u.PointsBalance,
		&u.CreatedAt,
		&nickname,
		&bio,
		&headline,
		&avatarURI,
		&interests,
		&badges,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if nickname != nil {
		u.Profile = &models.Profile{
			UserID:    u.ID,
			Nickname:  *nickname,
			Bio:       bio,
			Headline:  headline,
			AvatarURI: avatarURI,
			Interests: interests,
			Badges:    badges,
		}
	}
	return &u, nil
}

func (r *userRepo) CreatePhoneUser(
	ctx context.Context,
	u *models.User,
	p *models.Profile,
	verificationID uuid.UUID,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
        INSERT INTO users (
            id, email, password_hash, phone_hash, display_name, dob, gender,
            provider, region1, region2, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
    `,
		u.ID, u.Email, u.PasswordHash, u.PhoneHash, u.DisplayName, u.DOB, u.Gender,
		u.Provider, u.Region1, u.Region2,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO profiles (user_id, nickname, bio, headline, avatar_uri, interests, badges)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `,
		p.UserID, p.Nickname, p.Bio, p.Headline, p.AvatarURI, p.Interests, p.Badges,
	)
	if err != nil {
		return err
	}

	if verificationID != uuid.Nil {
		_, err = tx.Exec(ctx, `
            UPDATE phone_verifications
            SET user_id = $1,
                completed_at = NOW()
            WHERE id = $2
        `, u.ID, verificationID)
	}
	return err
}
