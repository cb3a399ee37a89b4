package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrCardTaken is returned when linking a card that already belongs
	// to a different user.
	ErrCardTaken = errors.New("card already registered to another user")
)
