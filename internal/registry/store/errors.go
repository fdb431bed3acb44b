// Package store holds what the registry stores share: the facts they report
// and the code sequence backends that do not depend on the record store.
package store

import (
	"fmt"

	"trialreg/pkg/platform/sentinel"
)

// Store errors. Each unique-key fact wraps sentinel.ErrAlreadyUsed and each
// structural participation fact wraps sentinel.ErrConflict, so callers can
// branch on either the specific or the generic error.
var (
	ErrNotFound = sentinel.ErrNotFound

	ErrDuplicateCURP      = fmt.Errorf("curp: %w", sentinel.ErrAlreadyUsed)
	ErrDuplicateCode      = fmt.Errorf("volunteer code: %w", sentinel.ErrAlreadyUsed)
	ErrDuplicateStudyName = fmt.Errorf("study name: %w", sentinel.ErrAlreadyUsed)

	ErrDuplicateEnrollment = fmt.Errorf("participation in study: %w", sentinel.ErrConflict)
	ErrActiveParticipation = fmt.Errorf("active participation: %w", sentinel.ErrConflict)
)
