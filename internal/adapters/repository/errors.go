package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("hero not found")
	ErrConflict = errors.New("hero id already exists")
	ErrInvalid  = errors.New("invalid hero")
)
