package common

import "errors"

// Sentinel errors shared across layers. Handlers translate them into
// client-facing responses; everything else surfaces as an internal error.
var (
	ErrNotFound = errors.New("extraction not found")
)
