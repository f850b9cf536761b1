package engine

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"

	"flightdeck/internal/models"
	"flightdeck/internal/store"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeStore implements store.Store with an in-memory open-transaction
// gauge, so tests can assert the dangling-transaction invariant and inject
// begin/commit failures. The Querier methods are never reached: the
// repositories are mocked above them.
type fakeStore struct {
	open       atomic.Int64
	beginErr   error
	commitErrs []error

	begun      int
	committed  int
	rolledBack int
}

func (f *fakeStore) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (f *fakeStore) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (f *fakeStore) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (f *fakeStore) Begin(ctx context.Context) (store.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.open.Add(1)
	f.begun++
	return &fakeTx{store: f}, nil
}

func (f *fakeStore) OpenCount() int64 {
	return f.open.Load()
}

type fakeTx struct {
	store *fakeStore
	done  bool
}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error {
	if !t.done {
		t.done = true
		t.store.open.Add(-1)
		t.store.committed++
	}
	if len(t.store.commitErrs) > 0 {
		err := t.store.commitErrs[0]
		t.store.commitErrs = t.store.commitErrs[1:]
		return err
	}
	return nil
}

func (t *fakeTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.open.Add(-1)
	t.store.rolledBack++
	return nil
}

var (
	_ store.Store = (*fakeStore)(nil)
	_ store.Tx    = (*fakeTx)(nil)
)

type mockFlights struct {
	mock.Mock
}

func (m *mockFlights) Direct(ctx context.Context, q store.Querier, origin, dest string, day, limit int) ([]models.Flight, error) {
	args := m.Called(ctx, q, origin, dest, day, limit)
	var flights []models.Flight
	if v := args.Get(0); v != nil {
		flights = v.([]models.Flight)
	}
	return flights, args.Error(1)
}

func (m *mockFlights) OneHop(ctx context.Context, q store.Querier, origin, dest string, day, limit int) ([][2]models.Flight, error) {
	args := m.Called(ctx, q, origin, dest, day, limit)
	var pairs [][2]models.Flight
	if v := args.Get(0); v != nil {
		pairs = v.([][2]models.Flight)
	}
	return pairs, args.Error(1)
}

func (m *mockFlights) GetByID(ctx context.Context, q store.Querier, fid int) (*models.Flight, error) {
	args := m.Called(ctx, q, fid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *mockFlights) Capacity(ctx context.Context, q store.Querier, fid int) (int, bool, error) {
	args := m.Called(ctx, q, fid)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *mockFlights) SetCapacity(ctx context.Context, q store.Querier, fid, capacity int) error {
	args := m.Called(ctx, q, fid, capacity)
	return args.Error(0)
}

type mockReservations struct {
	mock.Mock
}

func (m *mockReservations) DaysBooked(ctx context.Context, q store.Querier, username string) ([]int, error) {
	args := m.Called(ctx, q, username)
	var days []int
	if v := args.Get(0); v != nil {
		days = v.([]int)
	}
	return days, args.Error(1)
}

func (m *mockReservations) NextID(ctx context.Context, q store.Querier) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *mockReservations) AdvanceID(ctx context.Context, q store.Querier, next int) error {
	args := m.Called(ctx, q, next)
	return args.Error(0)
}

func (m *mockReservations) Insert(ctx context.Context, q store.Querier, res *models.Reservation) error {
	args := m.Called(ctx, q, res)
	return args.Error(0)
}

func (m *mockReservations) GetUnpaid(ctx context.Context, q store.Querier, rid int, username string) (*models.Reservation, error) {
	args := m.Called(ctx, q, rid, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockReservations) ListByUser(ctx context.Context, q store.Querier, username string) ([]models.Reservation, error) {
	args := m.Called(ctx, q, username)
	var reservations []models.Reservation
	if v := args.Get(0); v != nil {
		reservations = v.([]models.Reservation)
	}
	return reservations, args.Error(1)
}

func (m *mockReservations) ExistsForUser(ctx context.Context, q store.Querier, rid int, username string) (bool, error) {
	args := m.Called(ctx, q, rid, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockReservations) MarkPaid(ctx context.Context, q store.Querier, rid int) error {
	args := m.Called(ctx, q, rid)
	return args.Error(0)
}

func (m *mockReservations) Delete(ctx context.Context, q store.Querier, rid int, username string) error {
	args := m.Called(ctx, q, rid, username)
	return args.Error(0)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) Create(ctx context.Context, q store.Querier, user *models.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *mockUsers) Authenticate(ctx context.Context, q store.Querier, username, passwordHash string) (bool, error) {
	args := m.Called(ctx, q, username, passwordHash)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) Balance(ctx context.Context, q store.Querier, username string) (int, error) {
	args := m.Called(ctx, q, username)
	return args.Int(0), args.Error(1)
}

func (m *mockUsers) SetBalance(ctx context.Context, q store.Querier, username string, balance int) error {
	args := m.Called(ctx, q, username, balance)
	return args.Error(0)
}

type mockResets struct {
	mock.Mock
}

func (m *mockResets) ClearAll(ctx context.Context, q store.Querier) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

type mockAuthCache struct {
	mock.Mock
}

func (m *mockAuthCache) Lookup(ctx context.Context, username, passwordHash string) (bool, error) {
	args := m.Called(ctx, username, passwordHash)
	return args.Bool(0), args.Error(1)
}

func (m *mockAuthCache) Store(ctx context.Context, username, passwordHash string) error {
	args := m.Called(ctx, username, passwordHash)
	return args.Error(0)
}

func (m *mockAuthCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// testEngine bundles an engine with its fakes for the common case.
type testEngine struct {
	engine       *Engine
	store        *fakeStore
	flights      *mockFlights
	reservations *mockReservations
	users        *mockUsers
	resets       *mockResets
}

func newTestEngine(opts ...Option) *testEngine {
	te := &testEngine{
		store:        &fakeStore{},
		flights:      &mockFlights{},
		reservations: &mockReservations{},
		users:        &mockUsers{},
		resets:       &mockResets{},
	}
	te.engine = New(te.store, te.flights, te.reservations, te.users, te.resets, opts...)
	return te
}

// loggedInSession logs alice in through the normal path.
func (te *testEngine) loggedInSession(t *testing.T) *Session {
	t.Helper()
	te.users.On("Authenticate", mock.Anything, mock.Anything, "alice", hashPassword("secret")).Return(true, nil).Once()
	sess := te.engine.NewSession()
	result, err := sess.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, "Logged in as alice\n", result)
	return sess
}
