package repository

import (
	"context"
	"database/sql"

	"flightdeck/internal/models"
	"flightdeck/internal/store"
)

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// Create inserts a new user. The unique-username constraint surfaces as an
// error, which the engine maps to the generic create failure.
func (r *UserRepository) Create(ctx context.Context, q store.Querier, user *models.User) error {
	query := `INSERT INTO users (username, password_hash, balance) VALUES ($1, $2, $3)`
	_, err := q.ExecContext(ctx, query, user.Username, user.PasswordHash, user.Balance)
	return err
}

// Authenticate reports whether a user exists with the username and password
// digest.
func (r *UserRepository) Authenticate(ctx context.Context, q store.Querier, username, passwordHash string) (bool, error) {
	var found string
	err := q.QueryRowContext(ctx,
		`SELECT username FROM users WHERE username = $1 AND password_hash = $2`,
		username, passwordHash).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Balance reads the user's current account balance.
func (r *UserRepository) Balance(ctx context.Context, q store.Querier, username string) (int, error) {
	var balance int
	err := q.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE username = $1`, username).Scan(&balance)
	return balance, err
}

// SetBalance overwrites the user's balance. Payment computes the debit
// inside its transaction and writes the result through here.
func (r *UserRepository) SetBalance(ctx context.Context, q store.Querier, username string, balance int) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET balance = $1 WHERE username = $2`, balance, username)
	return err
}
