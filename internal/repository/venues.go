package repository

import (
	"context"
	"database/sql"

	"turnstile/internal/database"
	errs "turnstile/internal/errors"
	"turnstile/internal/models"
)

type VenueRepository struct {
	db *database.DB
}

func NewVenueRepository(db *database.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

func (r *VenueRepository) GetByID(ctx context.Context, id int64) (*models.Venue, error) {
	venue := &models.Venue{}
	query := `
		SELECT id, name, address, total_seats, created_at
		FROM venues
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&venue.ID,
		&venue.Name,
		&venue.Address,
		&venue.TotalSeats,
		&venue.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errs.ErrVenueNotFound
	}

	return venue, err
}

func (r *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	query := `
		INSERT INTO venues (name, address, total_seats)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		venue.Name,
		venue.Address,
		venue.TotalSeats,
	).Scan(&venue.ID, &venue.CreatedAt)
}

func (r *VenueRepository) CreateShowtime(ctx context.Context, showtime *models.Showtime) error {
	query := `
		INSERT INTO showtimes (venue_id, title, starts_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		showtime.VenueID,
		showtime.Title,
		showtime.StartsAt,
	).Scan(&showtime.ID, &showtime.CreatedAt)
}

func (r *VenueRepository) GetShowtime(ctx context.Context, id int64) (*models.Showtime, error) {
	showtime := &models.Showtime{}
	query := `
		SELECT id, venue_id, title, starts_at, created_at
		FROM showtimes
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&showtime.ID,
		&showtime.VenueID,
		&showtime.Title,
		&showtime.StartsAt,
		&showtime.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return showtime, err
}
