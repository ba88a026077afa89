package repository

import (
	"context"
	"database/sql"
	"time"

	"turnstile/internal/database"
	"turnstile/internal/models"
)

type ReservationRepository struct {
	db *database.DB
}

func NewReservationRepository(db *database.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts the reservation, derives its order id from the generated
// primary key, and links the seats, all in one transaction.
func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation, seatIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO reservations (showtime_id, buyer_id, status, total_price, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, insertQuery,
		res.ShowtimeID,
		res.BuyerID,
		res.Status,
		res.TotalPrice,
		res.ExpiresAt,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return err
	}

	res.OrderID = models.TicketOrderID(res.ID)
	orderQuery := `UPDATE reservations SET order_id = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, orderQuery, res.OrderID, res.ID); err != nil {
		return err
	}

	for _, seatID := range seatIDs {
		seatQuery := `INSERT INTO reservation_seats (reservation_id, seat_id) VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, seatQuery, res.ID, seatID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *ReservationRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Reservation, error) {
	return r.getOne(ctx, `WHERE order_id = $1`, orderID)
}

func (r *ReservationRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Reservation, error) {
	res := &models.Reservation{}
	query := `
		SELECT id, showtime_id, buyer_id, status, total_price, order_id,
		       payment_key, expires_at, created_at, updated_at
		FROM reservations ` + where

	var orderID sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&res.ID,
		&res.ShowtimeID,
		&res.BuyerID,
		&res.Status,
		&res.TotalPrice,
		&orderID,
		&res.PaymentKey,
		&res.ExpiresAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res.OrderID = orderID.String
	return res, nil
}

func (r *ReservationRepository) GetByBuyer(ctx context.Context, buyerID int64) ([]models.Reservation, error) {
	query := `
		SELECT id, showtime_id, buyer_id, status, total_price, order_id,
		       payment_key, expires_at, created_at, updated_at
		FROM reservations
		WHERE buyer_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

func (r *ReservationRepository) GetSeatIDs(ctx context.Context, reservationID int64) ([]string, error) {
	query := `
		SELECT seat_id
		FROM reservation_seats
		WHERE reservation_id = $1`

	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seatIDs []string
	for rows.Next() {
		var seatID string
		if err := rows.Scan(&seatID); err != nil {
			return nil, err
		}
		seatIDs = append(seatIDs, seatID)
	}
	return seatIDs, rows.Err()
}

// UpdateStatusIf transitions the reservation only when it is still in the
// expected status. Confirm, cancel and expiry all route through this, so the
// first writer wins and the rest observe false.
func (r *ReservationRepository) UpdateStatusIf(ctx context.Context, id int64, from, to models.ReservationStatus) (bool, error) {
	query := `UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Confirm flips the reservation to CONFIRMED and stores the payment key in
// one conditional update. Either both land or neither does, so a CONFIRMED
// row can never be missing its key.
func (r *ReservationRepository) Confirm(ctx context.Context, id int64, paymentKey string) (bool, error) {
	query := `
		UPDATE reservations
		SET status = 'CONFIRMED', payment_key = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'PENDING_PAYMENT'`

	result, err := r.db.ExecContext(ctx, query, paymentKey, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *ReservationRepository) GetExpired(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	query := `
		SELECT id, showtime_id, buyer_id, status, total_price, order_id,
		       payment_key, expires_at, created_at, updated_at
		FROM reservations
		WHERE status = 'PENDING_PAYMENT'
		  AND expires_at < $1
		ORDER BY expires_at ASC`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

func scanReservations(rows *sql.Rows) ([]models.Reservation, error) {
	var reservations []models.Reservation
	for rows.Next() {
		var res models.Reservation
		var orderID sql.NullString
		err := rows.Scan(
			&res.ID,
			&res.ShowtimeID,
			&res.BuyerID,
			&res.Status,
			&res.TotalPrice,
			&orderID,
			&res.PaymentKey,
			&res.ExpiresAt,
			&res.CreatedAt,
			&res.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		res.OrderID = orderID.String
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}
