package engine

import (
	"context"
	"fmt"
	"log/slog"

	"flightdeck/internal/metrics"
	"flightdeck/internal/models"
	"flightdeck/internal/store"
)

// FlightStore reads flights and tracks live seat capacity. Methods take a
// store.Querier so capacity reads and writes run inside the booking
// transaction, never against search-time caches.
type FlightStore interface {
	Direct(ctx context.Context, q store.Querier, origin, dest string, day, limit int) ([]models.Flight, error)
	OneHop(ctx context.Context, q store.Querier, origin, dest string, day, limit int) ([][2]models.Flight, error)
	GetByID(ctx context.Context, q store.Querier, fid int) (*models.Flight, error)
	Capacity(ctx context.Context, q store.Querier, fid int) (capacity int, found bool, err error)
	SetCapacity(ctx context.Context, q store.Querier, fid, capacity int) error
}

type ReservationStore interface {
	DaysBooked(ctx context.Context, q store.Querier, username string) ([]int, error)
	NextID(ctx context.Context, q store.Querier) (int, error)
	AdvanceID(ctx context.Context, q store.Querier, next int) error
	Insert(ctx context.Context, q store.Querier, res *models.Reservation) error
	GetUnpaid(ctx context.Context, q store.Querier, rid int, username string) (*models.Reservation, error)
	ListByUser(ctx context.Context, q store.Querier, username string) ([]models.Reservation, error)
	ExistsForUser(ctx context.Context, q store.Querier, rid int, username string) (bool, error)
	MarkPaid(ctx context.Context, q store.Querier, rid int) error
	Delete(ctx context.Context, q store.Querier, rid int, username string) error
}

type UserStore interface {
	Create(ctx context.Context, q store.Querier, user *models.User) error
	Authenticate(ctx context.Context, q store.Querier, username, passwordHash string) (bool, error)
	Balance(ctx context.Context, q store.Querier, username string) (int, error)
	SetBalance(ctx context.Context, q store.Querier, username string, balance int) error
}

type ResetStore interface {
	ClearAll(ctx context.Context, q store.Querier) error
}

// EventPublisher pushes reservation lifecycle events. Publish failures are
// logged and never fail the operation that produced the event.
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

// AuthCache is the optional login fast path.
type AuthCache interface {
	Lookup(ctx context.Context, username, passwordHash string) (bool, error)
	Store(ctx context.Context, username, passwordHash string) error
	Clear(ctx context.Context) error
}

// Engine runs the reservation operations against one relational store.
// Sessions created from it share the store; the search snapshot and the
// authenticated identity live on the Session.
type Engine struct {
	store        store.Store
	flights      FlightStore
	reservations ReservationStore
	users        UserStore
	resets       ResetStore
	publisher    EventPublisher
	authCache    AuthCache
}

type Option func(*Engine)

func WithPublisher(p EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithAuthCache(c AuthCache) Option {
	return func(e *Engine) { e.authCache = c }
}

func New(st store.Store, flights FlightStore, reservations ReservationStore, users UserStore, resets ResetStore, opts ...Option) *Engine {
	e := &Engine{
		store:        st,
		flights:      flights,
		reservations: reservations,
		users:        users,
		resets:       resets,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewSession returns a fresh unauthenticated session bound to this engine.
func (e *Engine) NewSession() *Session {
	return &Session{engine: e}
}

// guard is the dangling-transaction check. It runs deferred at the end of
// every public operation, on every exit path. A nonzero open-transaction
// count means some path began a transaction and never finished it; that is
// a programming defect, so the operation's result string is withdrawn and
// replaced with a fatal error.
func (e *Engine) guard(op string, result *string, errp *error) {
	if n := e.store.OpenCount(); n > 0 {
		metrics.DanglingTransactions.Inc()
		e.record(op, metrics.OutcomeFatal)
		slog.Error("Dangling transaction detected", "op", op, "open", n)
		*result = ""
		*errp = fmt.Errorf("dangling transaction after %s: %d still open", op, n)
	}
}

func (e *Engine) record(op, outcome string) {
	metrics.Operations.WithLabelValues(op, outcome).Inc()
}

// classify translates a store error into an outcome: serialization failures
// become retryable conflicts, everything else becomes the operation's
// generic failure message. Raw store errors never reach the caller.
func (e *Engine) classify(err error, failMsg string) outcome {
	if store.IsSerializationFailure(err) {
		return conflict()
	}
	slog.Error("Store operation failed", "error", err)
	return failed(failMsg)
}

func (e *Engine) publish(subject string, data interface{}) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(subject, data); err != nil {
		slog.Error("Failed to publish event", "error", err, "subject", subject)
	}
}

// Reset clears all engine-owned tables in one transaction and reseeds the
// reservation id counter. The flights dataset is left untouched.
func (e *Engine) Reset(ctx context.Context) (err error) {
	var result string
	defer e.guard("reset", &result, &err)

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer tx.Rollback()

	if err := e.resets.ClearAll(ctx, tx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}

	// Users are gone; cached credentials must not outlive them.
	if e.authCache != nil {
		if cacheErr := e.authCache.Clear(ctx); cacheErr != nil {
			slog.Error("Failed to clear auth cache", "error", cacheErr)
		}
	}

	slog.Info("Store reset completed")
	return nil
}
