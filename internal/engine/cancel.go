package engine

import (
	"context"
	"fmt"
	"time"

	"flightdeck/internal/metrics"
	"flightdeck/internal/models"
)

// Cancel deletes the user's reservation. The rid stays permanently retired:
// the id counter never moves backwards. Freed seats are deliberately NOT
// returned to flight_capacity; a cancellation forfeits the seats, it does
// not resell them.
func (s *Session) Cancel(ctx context.Context, rid int) (result string, err error) {
	e := s.engine
	defer e.guard("cancel", &result, &err)

	if s.username == "" {
		e.record("cancel", metrics.OutcomeRejected)
		return "Cannot cancel reservations, not logged in\n", nil
	}

	out := e.cancelOnce(ctx, s.username, rid)
	if out.kind == outcomeConflict {
		out = failed(fmt.Sprintf("Failed to cancel reservation %d\n", rid))
	}

	e.record("cancel", out.class())
	return out.message, nil
}

func (e *Engine) cancelOnce(ctx context.Context, username string, rid int) outcome {
	failMsg := fmt.Sprintf("Failed to cancel reservation %d\n", rid)

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return e.classify(err, failMsg)
	}
	defer tx.Rollback()

	exists, err := e.reservations.ExistsForUser(ctx, tx, rid, username)
	if err != nil {
		return e.classify(err, failMsg)
	}
	if !exists {
		tx.Rollback()
		return rejected(failMsg)
	}

	if err := e.reservations.Delete(ctx, tx, rid, username); err != nil {
		return e.classify(err, failMsg)
	}

	if err := tx.Commit(); err != nil {
		return e.classify(err, failMsg)
	}

	e.publish(models.EventReservationCanceled, models.ReservationCanceledEvent{
		RID:       rid,
		Username:  username,
		Timestamp: time.Now(),
	})

	return success(fmt.Sprintf("Canceled reservation %d\n", rid))
}
