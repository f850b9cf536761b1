package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"flightdeck/internal/engine"
	"flightdeck/internal/models"
	"flightdeck/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a no-op store.Store; the stub repositories below never touch
// the Querier they are handed.
type memStore struct {
	open atomic.Int64
}

func (s *memStore) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (s *memStore) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (s *memStore) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (s *memStore) Begin(ctx context.Context) (store.Tx, error) {
	s.open.Add(1)
	return &memTx{store: s}, nil
}

func (s *memStore) OpenCount() int64 { return s.open.Load() }

type memTx struct {
	store *memStore
	done  bool
}

func (t *memTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (t *memTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (t *memTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (t *memTx) Commit() error {
	if !t.done {
		t.done = true
		t.store.open.Add(-1)
	}
	return nil
}

func (t *memTx) Rollback() error {
	if !t.done {
		t.done = true
		t.store.open.Add(-1)
	}
	return nil
}

type stubFlights struct {
	direct []models.Flight
}

func (s stubFlights) Direct(ctx context.Context, q store.Querier, origin, dest string, day, limit int) ([]models.Flight, error) {
	return s.direct, nil
}

func (s stubFlights) OneHop(ctx context.Context, q store.Querier, origin, dest string, day, limit int) ([][2]models.Flight, error) {
	return nil, nil
}

func (s stubFlights) GetByID(ctx context.Context, q store.Querier, fid int) (*models.Flight, error) {
	return nil, nil
}

func (s stubFlights) Capacity(ctx context.Context, q store.Querier, fid int) (int, bool, error) {
	return 1, true, nil
}

func (s stubFlights) SetCapacity(ctx context.Context, q store.Querier, fid, capacity int) error {
	return nil
}

type stubReservations struct{}

func (stubReservations) DaysBooked(ctx context.Context, q store.Querier, username string) ([]int, error) {
	return nil, nil
}

func (stubReservations) NextID(ctx context.Context, q store.Querier) (int, error) { return 1, nil }

func (stubReservations) AdvanceID(ctx context.Context, q store.Querier, next int) error { return nil }

func (stubReservations) Insert(ctx context.Context, q store.Querier, res *models.Reservation) error {
	return nil
}

func (stubReservations) GetUnpaid(ctx context.Context, q store.Querier, rid int, username string) (*models.Reservation, error) {
	return nil, nil
}

func (stubReservations) ListByUser(ctx context.Context, q store.Querier, username string) ([]models.Reservation, error) {
	return nil, nil
}

func (stubReservations) ExistsForUser(ctx context.Context, q store.Querier, rid int, username string) (bool, error) {
	return false, nil
}

func (stubReservations) MarkPaid(ctx context.Context, q store.Querier, rid int) error { return nil }

func (stubReservations) Delete(ctx context.Context, q store.Querier, rid int, username string) error {
	return nil
}

type stubUsers struct {
	authOK bool
}

func (s stubUsers) Create(ctx context.Context, q store.Querier, user *models.User) error { return nil }

func (s stubUsers) Authenticate(ctx context.Context, q store.Querier, username, passwordHash string) (bool, error) {
	return s.authOK, nil
}

func (s stubUsers) Balance(ctx context.Context, q store.Querier, username string) (int, error) {
	return 0, nil
}

func (s stubUsers) SetBalance(ctx context.Context, q store.Querier, username string, balance int) error {
	return nil
}

type stubResets struct{}

func (stubResets) ClearAll(ctx context.Context, q store.Querier) error { return nil }

func newTestRouter(flights stubFlights, users stubUsers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	eng := engine.New(&memStore{}, flights, stubReservations{}, users, stubResets{})
	h := NewHandlers(eng)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/users", h.CreateUser)
	api.POST("/login", h.Login)
	api.GET("/search", h.Search)
	api.POST("/book", h.Book)
	api.POST("/pay", h.Pay)
	api.GET("/reservations", h.Reservations)
	api.POST("/cancel", h.Cancel)
	api.POST("/reset", h.Reset)
	return r
}

func doRequest(r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(sessionHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateUserEndpoint(t *testing.T) {
	r := newTestRouter(stubFlights{}, stubUsers{})

	w := doRequest(r, http.MethodPost, "/api/users", `{"username":"alice","password":"secret","balance":100}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Created user alice\n", w.Body.String())
}

func TestCreateUserRejectsMalformedBody(t *testing.T) {
	r := newTestRouter(stubFlights{}, stubUsers{})

	w := doRequest(r, http.MethodPost, "/api/users", `{"username":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIssuesSessionToken(t *testing.T) {
	r := newTestRouter(stubFlights{}, stubUsers{authOK: true})

	w := doRequest(r, http.MethodPost, "/api/login", `{"username":"alice","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged in as alice\n", w.Body.String())

	token := w.Header().Get(sessionHeader)
	require.NotEmpty(t, token)

	// The token maps to the logged-in session.
	w = doRequest(r, http.MethodGet, "/api/reservations", "", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No reservations found\n", w.Body.String())
}

func TestFailedLoginIssuesNoToken(t *testing.T) {
	r := newTestRouter(stubFlights{}, stubUsers{authOK: false})

	w := doRequest(r, http.MethodPost, "/api/login", `{"username":"alice","password":"wrong"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Login failed\n", w.Body.String())
	assert.Empty(t, w.Header().Get(sessionHeader))
}

func TestCommandsWithoutTokenAreNotLoggedIn(t *testing.T) {
	r := newTestRouter(stubFlights{}, stubUsers{})

	w := doRequest(r, http.MethodPost, "/api/book", `{"itinerary":0}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cannot book reservations, not logged in\n", w.Body.String())

	w = doRequest(r, http.MethodGet, "/api/reservations", "", "")
	assert.Equal(t, "Cannot view reservations, not logged in\n", w.Body.String())
}

func TestSearchValidation(t *testing.T) {
	r := newTestRouter(stubFlights{}, stubUsers{})

	w := doRequest(r, http.MethodGet, "/api/search?dest=Boston", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/search?origin=Seattle&dest=Boston&day=40", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/search?origin=Seattle&dest=Boston&count=0", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchReturnsItineraries(t *testing.T) {
	flights := stubFlights{direct: []models.Flight{{
		FID: 1, DayOfMonth: 5, CarrierID: "AA", FlightNum: "730",
		OriginCity: "Seattle", DestCity: "Boston", Duration: 90, Capacity: 5, Price: 140,
	}}}
	r := newTestRouter(flights, stubUsers{})

	w := doRequest(r, http.MethodGet, "/api/search?origin=Seattle&dest=Boston&direct=true&day=5&count=1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Itinerary 0: 1 flight(s), 90 minutes")
}

func TestResetClearsSessions(t *testing.T) {
	r := newTestRouter(stubFlights{}, stubUsers{authOK: true})

	w := doRequest(r, http.MethodPost, "/api/login", `{"username":"alice","password":"secret"}`, "")
	token := w.Header().Get(sessionHeader)
	require.NotEmpty(t, token)

	w = doRequest(r, http.MethodPost, "/api/reset", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	// The old token no longer resolves to a logged-in session.
	w = doRequest(r, http.MethodGet, "/api/reservations", "", token)
	assert.Equal(t, "Cannot view reservations, not logged in\n", w.Body.String())
}
