package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"trialreg/internal/registry/models"
	"trialreg/internal/registry/store"
	id "trialreg/pkg/domain"
	txcontext "trialreg/pkg/platform/tx"
)

const volunteerColumns = `
	id, code, first_name, middle_name, last_name_paternal, last_name_maternal,
	birth_date, sex, phone, curp, manual_status, status_reason, created_at, updated_at
`

func (s *Store) CreateVolunteer(ctx context.Context, v *models.Volunteer) error {
	query := `
		INSERT INTO volunteers (` + volunteerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(v.ID),
		v.Code,
		v.FirstName,
		v.MiddleName,
		v.LastNamePaternal,
		v.LastNameMaternal,
		nullDate(v.BirthDate),
		string(v.Sex),
		v.Phone,
		nullString(v.CURP),
		string(v.ManualStatus),
		v.StatusReason,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert volunteer: %w", translateWriteError(err))
	}
	return nil
}

// UpdateVolunteer rewrites the mutable columns; code and created_at never change.
func (s *Store) UpdateVolunteer(ctx context.Context, v *models.Volunteer) error {
	query := `
		UPDATE volunteers SET
			first_name = $2, middle_name = $3, last_name_paternal = $4, last_name_maternal = $5,
			birth_date = $6, sex = $7, phone = $8, curp = $9,
			manual_status = $10, status_reason = $11, updated_at = $12
		WHERE id = $1
	`
	res, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(v.ID),
		v.FirstName,
		v.MiddleName,
		v.LastNamePaternal,
		v.LastNameMaternal,
		nullDate(v.BirthDate),
		string(v.Sex),
		v.Phone,
		nullString(v.CURP),
		string(v.ManualStatus),
		v.StatusReason,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update volunteer: %w", translateWriteError(err))
	}
	return requireOneRow(res)
}

func (s *Store) FindVolunteer(ctx context.Context, volunteerID id.VolunteerID) (*models.Volunteer, error) {
	return s.findVolunteer(ctx, volunteerID, "")
}

// LockVolunteer takes a row lock that holds until the bound transaction ends.
func (s *Store) LockVolunteer(ctx context.Context, volunteerID id.VolunteerID) (*models.Volunteer, error) {
	return s.findVolunteer(ctx, volunteerID, "FOR UPDATE")
}

func (s *Store) findVolunteer(ctx context.Context, volunteerID id.VolunteerID, lock string) (*models.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers WHERE id = $1 ` + lock
	row := txcontext.Pick(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(volunteerID))
	v, err := scanVolunteer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find volunteer: %w", err)
	}
	return v, nil
}

// ListVolunteers returns matches newest first. The search is a case-insensitive
// substring match on code, first name, paternal last name and CURP.
func (s *Store) ListVolunteers(ctx context.Context, filter models.VolunteerFilter) ([]*models.Volunteer, error) {
	query := `
		SELECT ` + volunteerColumns + `
		FROM volunteers
		WHERE $1::text = ''
		   OR strpos(lower(code), $1::text) > 0
		   OR strpos(lower(first_name), $1::text) > 0
		   OR strpos(lower(last_name_paternal), $1::text) > 0
		   OR strpos(lower(coalesce(curp, '')), $1::text) > 0
		ORDER BY created_at DESC, code DESC
	`
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, filter.Query())
	if err != nil {
		return nil, fmt.Errorf("query volunteers: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Volunteer, 0)
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan volunteer: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volunteers: %w", err)
	}
	return out, nil
}

// NextCodeSequence increments the yearly counter. Inside a transaction the
// counter row stays locked until commit, so concurrent registrations queue
// and a rolled-back registration gives its number back.
func (s *Store) NextCodeSequence(ctx context.Context, year int) (int64, error) {
	query := `
		INSERT INTO volunteer_code_sequences (year, last_value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = volunteer_code_sequences.last_value + 1
		RETURNING last_value
	`
	var n int64
	if err := txcontext.Pick(ctx, s.db).QueryRowContext(ctx, query, year).Scan(&n); err != nil {
		return 0, fmt.Errorf("next volunteer code: %w", err)
	}
	return n, nil
}

// MaxCodeSequence returns the highest sequence already used in a code of
// year, whichever allocator issued it.
func (s *Store) MaxCodeSequence(ctx context.Context, year int) (int64, error) {
	query := `
		SELECT COALESCE(MAX(CAST(split_part(code, '-', 3) AS BIGINT)), 0)
		FROM volunteers
		WHERE split_part(code, '-', 2) = $1::text
	`
	var n int64
	if err := txcontext.Pick(ctx, s.db).QueryRowContext(ctx, query, strconv.Itoa(year)).Scan(&n); err != nil {
		return 0, fmt.Errorf("max volunteer code: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVolunteer(row scanner) (*models.Volunteer, error) {
	var (
		v            models.Volunteer
		volunteerID  uuid.UUID
		birthDate    sql.NullTime
		sex          string
		curp         sql.NullString
		manualStatus string
	)
	err := row.Scan(
		&volunteerID,
		&v.Code,
		&v.FirstName,
		&v.MiddleName,
		&v.LastNamePaternal,
		&v.LastNameMaternal,
		&birthDate,
		&sex,
		&v.Phone,
		&curp,
		&manualStatus,
		&v.StatusReason,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.ID = id.VolunteerID(volunteerID)
	v.BirthDate = datePtr(birthDate)
	v.Sex = models.Sex(sex)
	v.CURP = curp.String
	v.ManualStatus = models.ManualStatus(manualStatus)
	return &v, nil
}
