package database

import (
	"fmt"
	"log/slog"
)

// EnsureSchema creates the reservation-engine tables if they do not exist.
// The flights table itself is loaded out of band from the carrier dataset;
// only its shape is declared here so a fresh database can boot.
func (db *DB) EnsureSchema() error {
	slog.Info("Ensuring database schema...")

	statements := []string{
		createUsersTable,
		createFlightsTable,
		createFlightCapacityTable,
		createReservationsTable,
		createReservationIDTable,
		createFlightsRouteIndex,
	}

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}

	slog.Info("Database schema ready")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    username VARCHAR(20) PRIMARY KEY,
    password_hash VARCHAR(64) NOT NULL,
    balance INTEGER NOT NULL CHECK (balance >= 0)
);`

const createFlightsTable = `
CREATE TABLE IF NOT EXISTS flights (
    fid INTEGER PRIMARY KEY,
    day_of_month INTEGER NOT NULL,
    carrier_id VARCHAR(7) NOT NULL,
    flight_num VARCHAR(8) NOT NULL,
    origin_city VARCHAR(34) NOT NULL,
    dest_city VARCHAR(34) NOT NULL,
    actual_time INTEGER NOT NULL,
    capacity INTEGER NOT NULL,
    price INTEGER NOT NULL,
    canceled INTEGER NOT NULL DEFAULT 0
);`

const createFlightCapacityTable = `
CREATE TABLE IF NOT EXISTS flight_capacity (
    fid INTEGER PRIMARY KEY REFERENCES flights(fid),
    capacity INTEGER NOT NULL
);`

const createReservationsTable = `
CREATE TABLE IF NOT EXISTS reservations (
    rid INTEGER PRIMARY KEY,
    paid INTEGER NOT NULL DEFAULT 0,
    fid1 INTEGER NOT NULL,
    fid2 INTEGER NOT NULL DEFAULT -1,
    username VARCHAR(20) NOT NULL REFERENCES users(username),
    price INTEGER NOT NULL
);`

// Single row holding the next reservation id to hand out. Seeded by reset;
// ids are monotonic and survive cancellations.
const createReservationIDTable = `
CREATE TABLE IF NOT EXISTS reservation_id (
    next_rid INTEGER NOT NULL
);`

const createFlightsRouteIndex = `
CREATE INDEX IF NOT EXISTS flights_route_day_idx
ON flights (origin_city, dest_city, day_of_month);`
