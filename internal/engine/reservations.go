package engine

import (
	"context"
	"fmt"
	"strings"

	"flightdeck/internal/metrics"
	"flightdeck/internal/models"
)

// Reservations lists the user's reservations with both flight legs resolved.
// The reads run in one transaction so the listing is a consistent snapshot;
// when the user has none the transaction is rolled back, since nothing was
// read that needs committing.
func (s *Session) Reservations(ctx context.Context) (result string, err error) {
	e := s.engine
	defer e.guard("reservations", &result, &err)

	if s.username == "" {
		e.record("reservations", metrics.OutcomeRejected)
		return "Cannot view reservations, not logged in\n", nil
	}

	out := e.listReservations(ctx, s.username)
	if out.kind == outcomeConflict {
		out = failed("Failed to retrieve reservations\n")
	}

	e.record("reservations", out.class())
	return out.message, nil
}

func (e *Engine) listReservations(ctx context.Context, username string) outcome {
	const failMsg = "Failed to retrieve reservations\n"

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return e.classify(err, failMsg)
	}
	defer tx.Rollback()

	reservations, err := e.reservations.ListByUser(ctx, tx, username)
	if err != nil {
		return e.classify(err, failMsg)
	}

	if len(reservations) == 0 {
		tx.Rollback()
		return rejected("No reservations found\n")
	}

	var b strings.Builder
	for _, res := range reservations {
		b.WriteString(fmt.Sprintf("Reservation %d paid: %t:\n", res.RID, res.Paid))

		first, err := e.flights.GetByID(ctx, tx, res.FID1)
		if err != nil {
			return e.classify(err, failMsg)
		}
		if first == nil {
			return failed(failMsg)
		}
		b.WriteString(first.Line())
		b.WriteByte('\n')

		if res.FID2 != models.NoSecondFlight {
			second, err := e.flights.GetByID(ctx, tx, res.FID2)
			if err != nil {
				return e.classify(err, failMsg)
			}
			if second == nil {
				return failed(failMsg)
			}
			b.WriteString(second.Line())
			b.WriteByte('\n')
		}
	}

	if err := tx.Commit(); err != nil {
		return e.classify(err, failMsg)
	}

	return success(b.String())
}
