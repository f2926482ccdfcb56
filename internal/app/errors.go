package app

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownItem = errors.New("unknown hunt item")
)
