package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"trialreg/internal/registry/models"
	"trialreg/internal/registry/store"
	id "trialreg/pkg/domain"
	txcontext "trialreg/pkg/platform/tx"
)

const studyColumns = `id, name, description, admission_date, payment_date, is_active, created_at, updated_at`

func (s *Store) CreateStudy(ctx context.Context, study *models.Study) error {
	query := `
		INSERT INTO studies (` + studyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(study.ID),
		study.Name,
		study.Description,
		nullDate(study.AdmissionDate),
		nullDate(study.PaymentDate),
		study.IsActive,
		study.CreatedAt,
		study.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert study: %w", translateWriteError(err))
	}
	return nil
}

func (s *Store) UpdateStudy(ctx context.Context, study *models.Study) error {
	query := `
		UPDATE studies SET
			name = $2, description = $3, admission_date = $4, payment_date = $5,
			is_active = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(study.ID),
		study.Name,
		study.Description,
		nullDate(study.AdmissionDate),
		nullDate(study.PaymentDate),
		study.IsActive,
		study.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update study: %w", translateWriteError(err))
	}
	return requireOneRow(res)
}

func (s *Store) FindStudy(ctx context.Context, studyID id.StudyID) (*models.Study, error) {
	return s.findStudy(ctx, studyID, "")
}

func (s *Store) LockStudy(ctx context.Context, studyID id.StudyID) (*models.Study, error) {
	return s.findStudy(ctx, studyID, "FOR UPDATE")
}

func (s *Store) findStudy(ctx context.Context, studyID id.StudyID, lock string) (*models.Study, error) {
	query := `SELECT ` + studyColumns + ` FROM studies WHERE id = $1 ` + lock
	study, err := scanStudy(txcontext.Pick(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(studyID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find study: %w", err)
	}
	return study, nil
}

func (s *Store) ListStudies(ctx context.Context, activeOnly bool) ([]*models.Study, error) {
	query := `
		SELECT ` + studyColumns + `
		FROM studies
		WHERE NOT $1 OR is_active
		ORDER BY lower(name)
	`
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query studies: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Study, 0)
	for rows.Next() {
		study, err := scanStudy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		out = append(out, study)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate studies: %w", err)
	}
	return out, nil
}

func scanStudy(row scanner) (*models.Study, error) {
	var (
		study     models.Study
		studyID   uuid.UUID
		admission sql.NullTime
		payment   sql.NullTime
	)
	err := row.Scan(
		&studyID,
		&study.Name,
		&study.Description,
		&admission,
		&payment,
		&study.IsActive,
		&study.CreatedAt,
		&study.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	study.ID = id.StudyID(studyID)
	study.AdmissionDate = datePtr(admission)
	study.PaymentDate = datePtr(payment)
	return &study, nil
}
