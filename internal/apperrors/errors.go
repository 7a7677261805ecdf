// Package apperrors defines the sentinel errors shared across the service
// layers. The API layer owns the mapping from these to HTTP status codes.
package apperrors

import "errors"

var (
	// 400
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidSession = errors.New("invalid checkout session metadata")

	// 401
	ErrUnauthorized       = errors.New("authorization token required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenMalformed     = errors.New("malformed token")

	// 403
	ErrForbidden = errors.New("forbidden")

	// 404
	ErrNotFound = errors.New("not found")

	// 409
	ErrEmailTaken       = errors.New("an account with this email already exists")
	ErrAlreadyPurchased = errors.New("product already purchased")
	ErrPaymentPending   = errors.New("payment has not been completed")
)
