package core

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")

	// Errores de validación de input. Distintos de ErrNotFound: mapean a
	// 422, no a 404.
	ErrTitleRequired     = errors.New("title required")
	ErrTitleTooLong      = errors.New("title too long")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrEventTypeRequired = errors.New("event_type required")
)
