package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")

	ErrCardIDEmpty      = errors.New("card ID cannot be empty")
	ErrCardDeckEmpty    = errors.New("card deck ID cannot be empty")
	ErrCardFrontEmpty   = errors.New("card front cannot be empty")
	ErrCardStateInvalid = errors.New("card scheduling state is inconsistent")
)
