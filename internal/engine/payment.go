package engine

import (
	"context"
	"fmt"
	"time"

	"flightdeck/internal/metrics"
	"flightdeck/internal/models"
)

// Pay settles an unpaid reservation from the user's balance. One
// serializable transaction covers the ownership check, the balance check
// and both writes, so a racing payment of the same reservation cannot
// double-debit.
func (s *Session) Pay(ctx context.Context, rid int) (result string, err error) {
	e := s.engine
	defer e.guard("pay", &result, &err)

	if s.username == "" {
		e.record("pay", metrics.OutcomeRejected)
		return "Cannot pay, not logged in\n", nil
	}

	out := e.payOnce(ctx, s.username, rid)
	if out.kind == outcomeConflict {
		out = failed(fmt.Sprintf("Failed to pay for reservation %d\n", rid))
	}

	e.record("pay", out.class())
	return out.message, nil
}

func (e *Engine) payOnce(ctx context.Context, username string, rid int) outcome {
	failMsg := fmt.Sprintf("Failed to pay for reservation %d\n", rid)

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return e.classify(err, failMsg)
	}
	defer tx.Rollback()

	res, err := e.reservations.GetUnpaid(ctx, tx, rid, username)
	if err != nil {
		return e.classify(err, failMsg)
	}
	if res == nil {
		tx.Rollback()
		return rejected(fmt.Sprintf("Cannot find unpaid reservation %d under user: %s\n", rid, username))
	}

	balance, err := e.users.Balance(ctx, tx, username)
	if err != nil {
		return e.classify(err, failMsg)
	}
	if balance < res.Price {
		tx.Rollback()
		return rejected(fmt.Sprintf("User has only %d in account but itinerary costs %d\n", balance, res.Price))
	}

	if err := e.reservations.MarkPaid(ctx, tx, rid); err != nil {
		return e.classify(err, failMsg)
	}

	remaining := balance - res.Price
	if err := e.users.SetBalance(ctx, tx, username, remaining); err != nil {
		return e.classify(err, failMsg)
	}

	if err := tx.Commit(); err != nil {
		return e.classify(err, failMsg)
	}

	e.publish(models.EventReservationPaid, models.ReservationPaidEvent{
		RID:       rid,
		Username:  username,
		Balance:   remaining,
		Timestamp: time.Now(),
	})

	return success(fmt.Sprintf("Paid reservation: %d remaining balance: %d\n", rid, remaining))
}
