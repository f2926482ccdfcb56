package simulate

import "time"

// HTTP status code constants.
const (
	StatusOK      = 200
	StatusCreated = 201
)

// Runner configuration constants.
const (
	ProcessingDelay      = 3 * time.Second
	PercentageMultiplier = 100
)
