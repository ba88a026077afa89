package repository

import (
	"context"
	"database/sql"

	"turnstile/internal/database"
	"turnstile/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, email, first_name, surname, api_token_digest,
		       registered_at, is_active, last_logged_in
		FROM users
		WHERE user_id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.UserID,
		&user.Email,
		&user.FirstName,
		&user.Surname,
		&user.TokenDigest,
		&user.RegisteredAt,
		&user.IsActive,
		&user.LastLoggedIn,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}

// GetByTokenDigest resolves a bearer token's SHA-256 digest to its user.
func (r *UserRepository) GetByTokenDigest(ctx context.Context, digest string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, email, first_name, surname, api_token_digest,
		       registered_at, is_active, last_logged_in
		FROM users
		WHERE api_token_digest = $1 AND is_active = TRUE`

	err := r.db.QueryRowContext(ctx, query, digest).Scan(
		&user.UserID,
		&user.Email,
		&user.FirstName,
		&user.Surname,
		&user.TokenDigest,
		&user.RegisteredAt,
		&user.IsActive,
		&user.LastLoggedIn,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, first_name, surname, api_token_digest, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id, registered_at, last_logged_in`

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.FirstName,
		user.Surname,
		user.TokenDigest,
		user.IsActive,
	).Scan(&user.UserID, &user.RegisteredAt, &user.LastLoggedIn)

	return err
}
