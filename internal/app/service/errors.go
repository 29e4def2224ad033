package service

import "errors"

// The service-level error taxonomy. Handlers map these onto HTTP
// statuses; everything else surfaces as ErrStorage.
var (
	ErrNotFound         = errors.New("not found")
	ErrExpired          = errors.New("link expired")
	ErrLimitReached     = errors.New("link click limit reached")
	ErrPasswordRequired = errors.New("password required")
	ErrSessionRequired  = errors.New("session required")
	ErrSessionInvalid   = errors.New("session invalid or expired")
	ErrValidation       = errors.New("validation failed")
	ErrStorage          = errors.New("storage failure")
)
