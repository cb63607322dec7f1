package models

import "errors"

// Sentinel errors shared across the service and auth layers. Handlers
// translate these into HTTP statuses; nothing below the handlers writes
// to the transport.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrBadPassword  = errors.New("invalid password")
	ErrTaskNotFound = errors.New("task not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("invalid input")
)
