package services

import "errors"

// ErrInvalidCredentials is returned when an email is unknown or the
// password does not match. The two cases are indistinguishable to avoid
// account enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned when a session token is malformed, badly
// signed, expired, or carries no subject.
var ErrInvalidToken = errors.New("invalid token")

// ErrInvalidStatus is returned when a status value is not one of the
// enumerated lifecycle stages.
var ErrInvalidStatus = errors.New("invalid status")

// ErrInvalidPriority is returned when a priority value is outside 0-2.
var ErrInvalidPriority = errors.New("invalid priority")

// ErrDuplicateApplication is returned when duplicate tracking of a
// program is disabled and the student already tracks it.
var ErrDuplicateApplication = errors.New("program already tracked")
