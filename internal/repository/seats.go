package repository

import (
	"context"
	"database/sql"

	"turnstile/internal/database"
	errs "turnstile/internal/errors"
	"turnstile/internal/models"
)

// SeatRepository is the Postgres seat store. Status mutation goes through
// CompareAndSetStatus only; the conditional UPDATE is the row-level CAS.
type SeatRepository struct {
	db *database.DB
}

func NewSeatRepository(db *database.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

func (r *SeatRepository) GetSeat(ctx context.Context, seatID string) (*models.Seat, error) {
	seat := &models.Seat{}
	query := `
		SELECT id, venue_id, section, row_label, seat_number, base_price, status, created_at, updated_at
		FROM seats
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, seatID).Scan(
		&seat.ID,
		&seat.VenueID,
		&seat.Section,
		&seat.RowLabel,
		&seat.Number,
		&seat.BasePrice,
		&seat.Status,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errs.ErrSeatNotFound
	}

	return seat, err
}

func (r *SeatRepository) GetSeatsByVenue(ctx context.Context, venueID int64) ([]models.Seat, error) {
	query := `
		SELECT id, venue_id, section, row_label, seat_number, base_price, status, created_at, updated_at
		FROM seats
		WHERE venue_id = $1
		ORDER BY section, row_label, seat_number`

	rows, err := r.db.QueryContext(ctx, query, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeats(rows)
}

func (r *SeatRepository) GetSeatsByShowtime(ctx context.Context, showtimeID int64) ([]models.Seat, error) {
	query := `
		SELECT s.id, s.venue_id, s.section, s.row_label, s.seat_number, s.base_price, s.status, s.created_at, s.updated_at
		FROM seats s
		JOIN showtimes st ON st.venue_id = s.venue_id
		WHERE st.id = $1
		ORDER BY s.section, s.row_label, s.seat_number`

	rows, err := r.db.QueryContext(ctx, query, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeats(rows)
}

// CompareAndSetStatus atomically moves a seat from expected to next. Returns
// false when the seat was in another status; that is a lost race, not an error.
func (r *SeatRepository) CompareAndSetStatus(ctx context.Context, seatID string, expected, next models.SeatStatus) (bool, error) {
	query := `UPDATE seats SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, next, seatID, expected)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 1 {
		return true, nil
	}

	// Distinguish a lost race from a missing seat.
	var exists bool
	checkQuery := `SELECT EXISTS (SELECT 1 FROM seats WHERE id = $1)`
	if err := r.db.QueryRowContext(ctx, checkQuery, seatID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, errs.ErrSeatNotFound
	}

	return false, nil
}

// CreateSeatMap inserts a section's seats for a venue in one transaction.
func (r *SeatRepository) CreateSeatMap(ctx context.Context, venueID int64, section string, rows, seatsPerRow int, basePrice int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for row := 0; row < rows; row++ {
		rowLabel := string(rune('A' + row))
		for seat := 1; seat <= seatsPerRow; seat++ {
			query := `
				INSERT INTO seats (venue_id, section, row_label, seat_number, base_price, status)
				VALUES ($1, $2, $3, $4, $5, 'AVAILABLE')`

			if _, err := tx.ExecContext(ctx, query, venueID, section, rowLabel, seat, basePrice); err != nil {
				return err
			}
		}
	}

	updateQuery := `UPDATE venues SET total_seats = total_seats + $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, updateQuery, rows*seatsPerRow, venueID); err != nil {
		return err
	}

	return tx.Commit()
}

func scanSeats(rows *sql.Rows) ([]models.Seat, error) {
	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.VenueID,
			&seat.Section,
			&seat.RowLabel,
			&seat.Number,
			&seat.BasePrice,
			&seat.Status,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}
