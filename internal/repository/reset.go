package repository

import (
	"context"

	"flightdeck/internal/store"
)

// ResetRepository bulk-clears the engine-owned tables. The flights table is
// never touched: it is the immutable carrier dataset.
type ResetRepository struct{}

func NewResetRepository() *ResetRepository {
	return &ResetRepository{}
}

// ClearAll empties reservations, users and flight_capacity, reseeds the
// reservation id counter to 1, and repopulates flight_capacity from the
// flights table. Meant to run inside a single transaction.
func (r *ResetRepository) ClearAll(ctx context.Context, q store.Querier) error {
	statements := []string{
		`DELETE FROM reservations`,
		`DELETE FROM reservation_id`,
		`DELETE FROM users`,
		`DELETE FROM flight_capacity`,
		`INSERT INTO reservation_id (next_rid) VALUES (1)`,
		`INSERT INTO flight_capacity (fid, capacity) SELECT fid, capacity FROM flights`,
	}

	for _, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
