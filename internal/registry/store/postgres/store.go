// Package postgres implements the registry store on PostgreSQL.
//
// Every method runs on the transaction bound to ctx when there is one (see
// pkg/platform/tx), so the registry transaction and the audit store share a
// single commit. Uniqueness and the one-active-participation rule are backed
// by database constraints; violations come back as the store errors in
// internal/registry/store.
package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"trialreg/internal/registry/models"
	"trialreg/internal/registry/service"
	"trialreg/internal/registry/store"
)

// Constraint names from the registry migrations.
const (
	constraintVolunteerCode  = "volunteers_code_key"
	constraintVolunteerCURP  = "volunteers_curp_key"
	constraintStudyName      = "studies_name_lower_key"
	constraintVolunteerStudy = "participations_volunteer_study_key"
	constraintOneActive      = "participations_one_active_idx"
	pqUniqueViolation        = "23505"
)

// Store is the PostgreSQL registry store.
type Store struct {
	db *sql.DB
}

var _ service.Store = (*Store)(nil)

// New creates a PostgreSQL registry store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// translateWriteError maps unique violations to store errors and returns any
// other error unchanged.
func translateWriteError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case constraintVolunteerCode:
		return store.ErrDuplicateCode
	case constraintVolunteerCURP:
		return store.ErrDuplicateCURP
	case constraintStudyName:
		return store.ErrDuplicateStudyName
	case constraintVolunteerStudy:
		return store.ErrDuplicateEnrollment
	case constraintOneActive:
		return store.ErrActiveParticipation
	default:
		return err
	}
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: models.Day(*t), Valid: true}
}

func datePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	d := models.Day(n.Time)
	return &d
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
