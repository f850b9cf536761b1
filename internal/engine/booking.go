package engine

import (
	"context"
	"fmt"
	"time"

	"flightdeck/internal/metrics"
	"flightdeck/internal/models"
	"flightdeck/internal/store"
)

// Book reserves the itinerary at the given ordinal index of the session's
// latest search. The whole body runs as one serializable transaction; when
// the store aborts it with a serialization failure the transaction is rerun
// from the precondition checks, up to the booking retry budget.
func (s *Session) Book(ctx context.Context, index int) (result string, err error) {
	e := s.engine
	defer e.guard("book", &result, &err)

	if s.username == "" {
		e.record("book", metrics.OutcomeRejected)
		return "Cannot book reservations, not logged in\n", nil
	}

	snap := s.search
	if snap == nil || index < 0 || index >= len(snap.itineraries) {
		e.record("book", metrics.OutcomeRejected)
		return fmt.Sprintf("No such itinerary %d\n", index), nil
	}
	it := snap.itineraries[index]

	out := retryPolicy{maxAttempts: bookingAttempts}.run(func(attempt int) outcome {
		if attempt > 0 {
			metrics.BookingRetries.Inc()
		}
		return e.bookOnce(ctx, s.username, it)
	})
	if out.kind == outcomeConflict {
		out = failed("Booking failed\n")
	}

	e.record("book", out.class())
	return out.message, nil
}

func (e *Engine) bookOnce(ctx context.Context, username string, it models.Itinerary) outcome {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return e.classify(err, "Booking failed\n")
	}
	defer tx.Rollback()

	// Same-day conflict: one reservation per day-of-month per user, paid or
	// not, regardless of route.
	days, err := e.reservations.DaysBooked(ctx, tx, username)
	if err != nil {
		return e.classify(err, "Booking failed\n")
	}
	for _, day := range days {
		if day == it.Day {
			tx.Rollback()
			return rejected("You cannot book two flights in the same day\n")
		}
	}

	// Capacity is re-read inside the transaction. The counts shown at search
	// time are stale the moment another session books.
	legs := []int{it.First.FID}
	if it.Second != nil {
		legs = append(legs, it.Second.FID)
	}

	capacities := make([]int, len(legs))
	for i, fid := range legs {
		capacity, found, err := e.flights.Capacity(ctx, tx, fid)
		if err != nil {
			return e.classify(err, "Booking failed\n")
		}
		if !found || capacity < 1 {
			tx.Rollback()
			return rejected("Booking failed\n")
		}
		capacities[i] = capacity
	}

	for i, fid := range legs {
		if err := e.flights.SetCapacity(ctx, tx, fid, capacities[i]-1); err != nil {
			return e.classify(err, "Booking failed\n")
		}
	}

	rid, allocOut := e.allocateReservation(ctx, tx, username, it)
	if allocOut.kind != outcomeOK {
		return allocOut
	}

	if err := tx.Commit(); err != nil {
		return e.classify(err, "Booking failed\n")
	}

	fid2 := models.NoSecondFlight
	if it.Second != nil {
		fid2 = it.Second.FID
	}
	e.publish(models.EventReservationBooked, models.ReservationBookedEvent{
		RID:       rid,
		Username:  username,
		FID1:      it.First.FID,
		FID2:      fid2,
		Price:     it.Price,
		Timestamp: time.Now(),
	})

	return success(fmt.Sprintf("Booked flight(s), reservation ID: %d\n", rid))
}

// allocateReservation hands out the next monotonic reservation id, inserts
// the unpaid row and advances the counter. The step has its own retry
// budget; a conflict that survives it propagates to the outer loop, which
// restarts the whole transaction.
func (e *Engine) allocateReservation(ctx context.Context, tx store.Tx, username string, it models.Itinerary) (int, outcome) {
	fid2 := models.NoSecondFlight
	if it.Second != nil {
		fid2 = it.Second.FID
	}

	var rid int
	out := retryPolicy{maxAttempts: ridAllocAttempts}.run(func(int) outcome {
		var err error
		rid, err = e.reservations.NextID(ctx, tx)
		if err != nil {
			return e.classify(err, "Booking failed\n")
		}

		res := &models.Reservation{
			RID:      rid,
			FID1:     it.First.FID,
			FID2:     fid2,
			Username: username,
			Price:    it.Price,
		}
		if err := e.reservations.Insert(ctx, tx, res); err != nil {
			return e.classify(err, "Booking failed\n")
		}

		if err := e.reservations.AdvanceID(ctx, tx, rid+1); err != nil {
			return e.classify(err, "Booking failed\n")
		}
		return success("")
	})

	return rid, out
}
