package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound  = errors.New("record not found")
	ErrOpenStore = errors.New("open store failed")
	ErrStore     = errors.New("store operation failed")
)
