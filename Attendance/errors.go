package Attendance

import (
	"errors"

	"MediFlow/Identity"
)

var (
	ErrNotAuthenticated   = Identity.ErrNotAuthenticated
	ErrUserIDUnresolved   = Identity.ErrUnresolved
	ErrNotReady           = errors.New("user id not resolved yet, try again")
	ErrSubmissionFailed   = errors.New("attendance submission failed")
	ErrSubmissionInFlight = errors.New("an attendance submission is already in progress")
	ErrInvalidTransition  = errors.New("invalid attendance session transition")
	ErrInvalidMode        = errors.New("invalid attendance mode")
)
