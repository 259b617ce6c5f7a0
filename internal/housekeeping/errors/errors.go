package errors

import "errors"

var (
	ErrNotFound = errors.New("housekeeping task not found")

	ErrInvalidID = errors.New("invalid housekeeping task ID format")
)
