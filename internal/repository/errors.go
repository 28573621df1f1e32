package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateSession is returned when a generated session identifier collides
	ErrDuplicateSession = errors.New("session with this id already exists")

	// ErrDuplicateState is returned when a generated oauth state token collides
	ErrDuplicateState = errors.New("oauth state token already exists")
)
