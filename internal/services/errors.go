package services

import "errors"

// Sentinel errors surfaced to handlers, which map them onto status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrBadCredentials     = errors.New("incorrect password")
	ErrTransactionFailure = errors.New("transaction failed")
)
