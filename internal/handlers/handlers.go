package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"flightdeck/internal/engine"
	"flightdeck/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionHeader = "X-Session-Token"

// Handlers serves the reservation commands over HTTP. Responses are the
// engine's literal result strings as text/plain; callers parse them, so the
// HTTP layer never rewraps them. Each login mints a session token mapping
// to one engine session, mirroring the one-client-one-session model.
type Handlers struct {
	engine *engine.Engine

	mu       sync.RWMutex
	sessions map[string]*engine.Session
}

func NewHandlers(e *engine.Engine) *Handlers {
	return &Handlers{
		engine:   e,
		sessions: make(map[string]*engine.Session),
	}
}

// session resolves the request's session token. Unknown or absent tokens
// get a fresh unauthenticated session, which yields the "not logged in"
// outcomes downstream.
func (h *Handlers) session(c *gin.Context) *engine.Session {
	token := c.GetHeader(sessionHeader)
	if token != "" {
		h.mu.RLock()
		sess, ok := h.sessions[token]
		h.mu.RUnlock()
		if ok {
			return sess
		}
	}
	return h.engine.NewSession()
}

func (h *Handlers) respond(c *gin.Context, result string, err error) {
	if err != nil {
		slog.Error("Operation aborted", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.String(http.StatusOK, result)
}

// CreateUser - POST /api/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.CreateUser(c.Request.Context(), req.Username, req.Password, req.Balance)
	h.respond(c, result, err)
}

// Login - POST /api/login
// Успешный вход выдаёт токен сессии в заголовке X-Session-Token.
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := h.session(c)
	result, err := sess.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respond(c, "", err)
		return
	}

	if sess.LoggedIn() && strings.HasPrefix(result, "Logged in as ") {
		token := uuid.NewString()
		h.mu.Lock()
		h.sessions[token] = sess
		h.mu.Unlock()
		c.Header(sessionHeader, token)
	}

	c.String(http.StatusOK, result)
}

// Search - GET /api/search?origin=&dest=&direct=&day=&count=
func (h *Handlers) Search(c *gin.Context) {
	origin := c.Query("origin")
	dest := c.Query("dest")
	if origin == "" || dest == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin and dest are required"})
		return
	}

	direct := c.DefaultQuery("direct", "false") == "true"
	day, err := strconv.Atoi(c.DefaultQuery("day", "1"))
	if err != nil || day < 1 || day > 31 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be between 1 and 31"})
		return
	}
	count, err := strconv.Atoi(c.DefaultQuery("count", "10"))
	if err != nil || count < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be >= 1"})
		return
	}

	result, opErr := h.session(c).Search(c.Request.Context(), origin, dest, direct, day, count)
	h.respond(c, result, opErr)
}

// Book - POST /api/book
func (h *Handlers) Book(c *gin.Context) {
	var req models.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.session(c).Book(c.Request.Context(), req.Itinerary)
	h.respond(c, result, err)
}

// Pay - POST /api/pay
func (h *Handlers) Pay(c *gin.Context) {
	var req models.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.session(c).Pay(c.Request.Context(), req.Reservation)
	h.respond(c, result, err)
}

// Reservations - GET /api/reservations
func (h *Handlers) Reservations(c *gin.Context) {
	result, err := h.session(c).Reservations(c.Request.Context())
	h.respond(c, result, err)
}

// Cancel - POST /api/cancel
func (h *Handlers) Cancel(c *gin.Context) {
	var req models.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.session(c).Cancel(c.Request.Context(), req.Reservation)
	h.respond(c, result, err)
}

// Reset - POST /api/reset
// Сбросить все данные кроме каталога рейсов.
func (h *Handlers) Reset(c *gin.Context) {
	if err := h.engine.Reset(c.Request.Context()); err != nil {
		slog.Error("Failed to reset store", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset"})
		return
	}

	h.mu.Lock()
	h.sessions = make(map[string]*engine.Session)
	h.mu.Unlock()

	c.Status(http.StatusOK)
}
