package search

import "errors"

// ErrClosed is returned when submitting to a closed pipeline.
var ErrClosed = errors.New("search pipeline closed")
