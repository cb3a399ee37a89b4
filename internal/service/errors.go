package service

import "errors"

var (
	// ErrCardNotRegistered is returned when a tap presents a valid
	// identifier that no user owns.
	ErrCardNotRegistered = errors.New("card not registered")

	// ErrOpenRideConflict is returned when more than one open ride is
	// found for a user. The open-ride invariant is broken elsewhere;
	// the tap is aborted rather than guessing which ride to close.
	ErrOpenRideConflict = errors.New("multiple open rides for user")

	// ErrDuplicateTap is returned when the same card taps again within
	// the configured debounce window (reader double-fire).
	ErrDuplicateTap = errors.New("duplicate tap")

	// ErrInvalidUserID is returned when a user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidEmail is returned when an email is empty.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidAmount is returned when a monetary amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrReaderNotConfigured is returned when card detection is requested
	// but no reader broker is configured.
	ErrReaderNotConfigured = errors.New("reader broker not configured")

	// ErrReaderTimeout is returned when no valid card is presented to the
	// reader within the polling budget.
	ErrReaderTimeout = errors.New("card detection timed out")
)
