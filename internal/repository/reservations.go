package repository

import (
	"context"
	"database/sql"

	"flightdeck/internal/models"
	"flightdeck/internal/store"
)

// ReservationRepository owns the reservations table and the reservation_id
// counter. All mutating methods are meant to run inside a serializable
// transaction; the engine passes the open store.Tx as the Querier.
type ReservationRepository struct{}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{}
}

// DaysBooked returns the day-of-month of every flight the user already holds
// a reservation for, paid or not. Used for the same-day conflict check.
func (r *ReservationRepository) DaysBooked(ctx context.Context, q store.Querier, username string) ([]int, error) {
	query := `
		SELECT f.day_of_month
		FROM reservations res
		JOIN flights f ON f.fid = res.fid1
		WHERE res.username = $1`

	rows, err := q.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []int
	for rows.Next() {
		var day int
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}

	return days, rows.Err()
}

// NextID reads the reservation id the counter will hand out next. The
// counter row is seeded with 1 by reset and only ever advances.
func (r *ReservationRepository) NextID(ctx context.Context, q store.Querier) (int, error) {
	var rid int
	err := q.QueryRowContext(ctx, `SELECT next_rid FROM reservation_id`).Scan(&rid)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return rid, nil
}

// AdvanceID moves the counter past a handed-out id. Canceled ids are never
// returned to the counter.
func (r *ReservationRepository) AdvanceID(ctx context.Context, q store.Querier, next int) error {
	_, err := q.ExecContext(ctx, `UPDATE reservation_id SET next_rid = $1`, next)
	return err
}

// Insert creates an unpaid reservation row.
func (r *ReservationRepository) Insert(ctx context.Context, q store.Querier, res *models.Reservation) error {
	query := `
		INSERT INTO reservations (rid, paid, fid1, fid2, username, price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	paid := 0
	if res.Paid {
		paid = 1
	}
	_, err := q.ExecContext(ctx, query, res.RID, paid, res.FID1, res.FID2, res.Username, res.Price)
	return err
}

// GetUnpaid returns the unpaid reservation with the given rid owned by
// username, or nil when there is no such row.
func (r *ReservationRepository) GetUnpaid(ctx context.Context, q store.Querier, rid int, username string) (*models.Reservation, error) {
	query := `
		SELECT rid, paid, fid1, fid2, username, price
		FROM reservations
		WHERE rid = $1 AND username = $2 AND paid = 0`

	res, err := scanReservation(q.QueryRowContext(ctx, query, rid, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return res, err
}

// ListByUser returns all of the user's reservations ordered by rid.
func (r *ReservationRepository) ListByUser(ctx context.Context, q store.Querier, username string) ([]models.Reservation, error) {
	query := `
		SELECT rid, paid, fid1, fid2, username, price
		FROM reservations
		WHERE username = $1
		ORDER BY rid ASC`

	rows, err := q.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}

	return reservations, rows.Err()
}

// ExistsForUser reports whether the user owns a reservation with the rid.
func (r *ReservationRepository) ExistsForUser(ctx context.Context, q store.Querier, rid int, username string) (bool, error) {
	var found int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM reservations WHERE rid = $1 AND username = $2`, rid, username).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkPaid flips the paid flag on a reservation.
func (r *ReservationRepository) MarkPaid(ctx context.Context, q store.Querier, rid int) error {
	_, err := q.ExecContext(ctx, `UPDATE reservations SET paid = 1 WHERE rid = $1`, rid)
	return err
}

// Delete removes the user's reservation. The rid stays retired: the counter
// is independent of deletions.
func (r *ReservationRepository) Delete(ctx context.Context, q store.Querier, rid int, username string) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM reservations WHERE rid = $1 AND username = $2`, rid, username)
	return err
}

func scanReservation(row interface{ Scan(...any) error }) (*models.Reservation, error) {
	var res models.Reservation
	var paid int
	err := row.Scan(&res.RID, &paid, &res.FID1, &res.FID2, &res.Username, &res.Price)
	if err != nil {
		return nil, err
	}
	res.Paid = paid == 1
	return &res, nil
}
