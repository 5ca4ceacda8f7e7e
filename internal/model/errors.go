package model

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrConflict          = errors.New("already exists")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")

	// ErrStorageConflict marks a transaction that lost a race inside the database
	// and may succeed if retried.
	ErrStorageConflict = errors.New("storage conflict")
	// ErrStorageUnavailable is fatal for the request.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
