package acquire

import "errors"

var (
	// ErrTooShort rejects manual text below MinManualLength characters.
	ErrTooShort = errors.New("acquire: manual text too short")

	// ErrRelay covers every upstream failure mode of a fetch: transport
	// errors, non-2xx statuses and bodies that encode an error object.
	ErrRelay = errors.New("acquire: relay fetch failed")
)
