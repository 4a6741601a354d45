package domain

import "errors"

// Sentinel errors for profile and portfolio operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	// HTTP Status: 404 Not Found
	ErrUserNotFound = errors.New("user not found")

	// ErrPortfolioNotFound indicates the requested portfolio does not exist.
	// HTTP Status: 404 Not Found
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrInvalidID indicates a missing or malformed document identifier.
	// HTTP Status: 400 Bad Request
	ErrInvalidID = errors.New("invalid document id")

	// ErrDatabaseUnavailable indicates the store cannot serve requests.
	// HTTP Status: 500 Internal Server Error
	ErrDatabaseUnavailable = errors.New("database connection not available")
)
