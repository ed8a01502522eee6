package user

import "errors"

var (
	// ErrNotFound is returned when no user record matches the given id.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when an insert or update violates the
	// unique email constraint.
	ErrEmailTaken = errors.New("user with this email already exists")

	// ErrInvalidPagination is returned before any storage access when page
	// or limit is below 1.
	ErrInvalidPagination = errors.New("page and limit values must be greater than 0")
)
