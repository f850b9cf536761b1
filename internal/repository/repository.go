package repository

import "flightdeck/internal/engine"

// Compile-time checks that the SQL repositories satisfy the engine's
// store interfaces.
var (
	_ engine.FlightStore      = (*FlightRepository)(nil)
	_ engine.ReservationStore = (*ReservationRepository)(nil)
	_ engine.UserStore        = (*UserRepository)(nil)
	_ engine.ResetStore       = (*ResetRepository)(nil)
)
