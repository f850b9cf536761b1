package engine

// Retry budgets. The booking transaction retries as a whole when the store
// aborts it with a serialization failure; the reservation-id allocation step
// carries its own budget, independent of the outer one.
const (
	bookingAttempts  = 3
	ridAllocAttempts = 3
)

// retryPolicy reruns a transactional body while it reports a transient
// conflict, up to maxAttempts, with no backoff. Any other outcome is final.
// fn receives the zero-based attempt number.
type retryPolicy struct {
	maxAttempts int
}

func (p retryPolicy) run(fn func(attempt int) outcome) outcome {
	var last outcome
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		last = fn(attempt)
		if last.kind != outcomeConflict {
			return last
		}
	}
	return last
}
