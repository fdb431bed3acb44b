package sentinel

import "errors"

// Facts reported by stores. Services translate them into domain errors with a
// user-facing message; stores never build user-facing text themselves.
//
//   - ErrNotFound: the record does not exist
//   - ErrAlreadyUsed: a unique key (CURP, study name, username) is taken
//   - ErrConflict: a structural constraint rejected the write (one active
//     participation per volunteer, one participation per study)
//   - ErrInvalidState: the record is in the wrong state for the write
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
