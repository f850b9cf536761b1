package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"flightdeck/internal/metrics"
	"flightdeck/internal/models"
)

const maxCredentialLen = 20

// Session is one client's state: an authenticated identity (or none) and
// the latest search snapshot. A session serves one command at a time; the
// snapshot is immutable and replaced wholesale by each new search, so
// booking always indexes into exactly the list the client last saw.
type Session struct {
	engine   *Engine
	username string
	search   *searchSnapshot
}

type searchSnapshot struct {
	itineraries []models.Itinerary
}

// LoggedIn reports whether the session has an authenticated user.
func (s *Session) LoggedIn() bool {
	return s.username != ""
}

// Username returns the authenticated username, or "" when logged out.
func (s *Session) Username() string {
	return s.username
}

// Login authenticates the session. A session holds at most one identity;
// a second login attempt is refused until the session ends.
func (s *Session) Login(ctx context.Context, username, password string) (result string, err error) {
	e := s.engine
	defer e.guard("login", &result, &err)

	if s.username != "" {
		e.record("login", metrics.OutcomeRejected)
		return "User already logged in\n", nil
	}

	hash := hashPassword(password)

	// Cache fast path; any cache trouble falls through to the store.
	if e.authCache != nil {
		if ok, cacheErr := e.authCache.Lookup(ctx, username, hash); cacheErr == nil && ok {
			s.username = username
			e.record("login", metrics.OutcomeOK)
			return fmt.Sprintf("Logged in as %s\n", username), nil
		}
	}

	ok, authErr := e.users.Authenticate(ctx, e.store, username, hash)
	if authErr != nil || !ok {
		if authErr != nil {
			slog.Error("Login query failed", "error", authErr)
		}
		e.record("login", metrics.OutcomeFailed)
		return "Login failed\n", nil
	}

	s.username = username
	if e.authCache != nil {
		if cacheErr := e.authCache.Store(ctx, username, hash); cacheErr != nil {
			slog.Error("Failed to update auth cache", "error", cacheErr, "username", username)
		}
	}

	e.record("login", metrics.OutcomeOK)
	return fmt.Sprintf("Logged in as %s\n", username), nil
}

// CreateUser registers a new account with an opening balance. It does not
// log the new user in.
func (e *Engine) CreateUser(ctx context.Context, username, password string, balance int) (result string, err error) {
	defer e.guard("create_user", &result, &err)

	if balance < 0 || len(username) > maxCredentialLen || len(password) > maxCredentialLen {
		e.record("create_user", metrics.OutcomeRejected)
		return "Failed to create user\n", nil
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashPassword(password),
		Balance:      balance,
	}

	if createErr := e.users.Create(ctx, e.store, user); createErr != nil {
		slog.Error("Failed to insert user", "error", createErr, "username", username)
		e.record("create_user", metrics.OutcomeFailed)
		return "Failed to create user\n", nil
	}

	e.record("create_user", metrics.OutcomeOK)
	return fmt.Sprintf("Created user %s\n", username), nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return fmt.Sprintf("%x", sum)
}
