package errors

import "errors"

var (
	ErrNotFound = errors.New("office not found")

	ErrInvalidID = errors.New("invalid office ID format")
)
