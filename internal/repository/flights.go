package repository

import (
	"context"
	"database/sql"
	"fmt"

	"flightdeck/internal/models"
	"flightdeck/internal/store"
)

// FlightRepository reads the immutable flights table and the mutable
// flight_capacity table. Every method takes a Querier so the capacity
// reads and writes can run inside a booking transaction.
type FlightRepository struct{}

func NewFlightRepository() *FlightRepository {
	return &FlightRepository{}
}

const flightColumns = `fid, day_of_month, carrier_id, flight_num, origin_city, dest_city, actual_time, capacity, price`

func scanFlight(row interface{ Scan(...any) error }, f *models.Flight) error {
	return row.Scan(
		&f.FID,
		&f.DayOfMonth,
		&f.CarrierID,
		&f.FlightNum,
		&f.OriginCity,
		&f.DestCity,
		&f.Duration,
		&f.Capacity,
		&f.Price,
	)
}

// Direct returns up to limit non-canceled direct flights for the route and
// day, ordered by duration then fid so the ranking is deterministic.
func (r *FlightRepository) Direct(ctx context.Context, q store.Querier, origin, dest string, day, limit int) ([]models.Flight, error) {
	query := `
		SELECT ` + flightColumns + `
		FROM flights
		WHERE origin_city = $1 AND dest_city = $2 AND day_of_month = $3 AND canceled = 0
		ORDER BY actual_time ASC, fid ASC
		LIMIT $4`

	rows, err := q.QueryContext(ctx, query, origin, dest, day, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		var f models.Flight
		if err := scanFlight(rows, &f); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}

	return flights, rows.Err()
}

// OneHop returns up to limit two-leg itineraries for the route and day:
// pairs where leg 1 lands in leg 2's origin city on the same day, ordered by
// combined duration with (fid1, fid2) as the tie-break.
func (r *FlightRepository) OneHop(ctx context.Context, q store.Querier, origin, dest string, day, limit int) ([][2]models.Flight, error) {
	query := `
		SELECT f1.fid, f1.day_of_month, f1.carrier_id, f1.flight_num, f1.origin_city, f1.dest_city, f1.actual_time, f1.capacity, f1.price,
		       f2.fid, f2.day_of_month, f2.carrier_id, f2.flight_num, f2.origin_city, f2.dest_city, f2.actual_time, f2.capacity, f2.price
		FROM flights f1, flights f2
		WHERE f1.origin_city = $1 AND f1.dest_city = f2.origin_city AND f2.dest_city = $2
		  AND f1.day_of_month = $3 AND f2.day_of_month = $3
		  AND f1.canceled = 0 AND f2.canceled = 0
		ORDER BY (f1.actual_time + f2.actual_time) ASC, f1.fid ASC, f2.fid ASC
		LIMIT $4`

	rows, err := q.QueryContext(ctx, query, origin, dest, day, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs [][2]models.Flight
	for rows.Next() {
		var f1, f2 models.Flight
		err := rows.Scan(
			&f1.FID, &f1.DayOfMonth, &f1.CarrierID, &f1.FlightNum, &f1.OriginCity, &f1.DestCity, &f1.Duration, &f1.Capacity, &f1.Price,
			&f2.FID, &f2.DayOfMonth, &f2.CarrierID, &f2.FlightNum, &f2.OriginCity, &f2.DestCity, &f2.Duration, &f2.Capacity, &f2.Price,
		)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]models.Flight{f1, f2})
	}

	return pairs, rows.Err()
}

// GetByID returns the flight with the given fid, or nil if none exists.
func (r *FlightRepository) GetByID(ctx context.Context, q store.Querier, fid int) (*models.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE fid = $1`

	var f models.Flight
	err := scanFlight(q.QueryRowContext(ctx, query, fid), &f)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Capacity reads the current seat count for fid from flight_capacity.
// found is false when no capacity row exists for the flight.
func (r *FlightRepository) Capacity(ctx context.Context, q store.Querier, fid int) (capacity int, found bool, err error) {
	err = q.QueryRowContext(ctx, `SELECT capacity FROM flight_capacity WHERE fid = $1`, fid).Scan(&capacity)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return capacity, true, nil
}

// SetCapacity overwrites the seat count for fid.
func (r *FlightRepository) SetCapacity(ctx context.Context, q store.Querier, fid, capacity int) error {
	res, err := q.ExecContext(ctx, `UPDATE flight_capacity SET capacity = $1 WHERE fid = $2`, capacity, fid)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no capacity row for flight %d", fid)
	}
	return nil
}
