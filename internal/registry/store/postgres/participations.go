package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trialreg/internal/registry/models"
	"trialreg/internal/registry/store"
	id "trialreg/pkg/domain"
	txcontext "trialreg/pkg/platform/tx"
)

const participationColumns = `
	id, volunteer_id, study_id, admission_date, payment_date, justification, created_at, updated_at
`

// CreateParticipation relies on participations_volunteer_study_key and the
// partial index participations_one_active_idx for the structural rules.
func (s *Store) CreateParticipation(ctx context.Context, p *models.Participation) error {
	query := `
		INSERT INTO participations (` + participationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.ID),
		uuid.UUID(p.VolunteerID),
		uuid.UUID(p.StudyID),
		models.Day(p.AdmissionDate),
		nullDate(p.PaymentDate),
		p.Justification,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert participation: %w", translateWriteError(err))
	}
	return nil
}

// UpdateParticipation only moves the payment date; the pair and the
// admission date are fixed at creation.
func (s *Store) UpdateParticipation(ctx context.Context, p *models.Participation) error {
	query := `UPDATE participations SET payment_date = $2, updated_at = $3 WHERE id = $1`
	res, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.ID),
		nullDate(p.PaymentDate),
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update participation: %w", translateWriteError(err))
	}
	return requireOneRow(res)
}

func (s *Store) FindParticipation(ctx context.Context, participationID id.ParticipationID) (*models.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE id = $1`
	p, err := scanParticipation(txcontext.Pick(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(participationID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find participation: %w", err)
	}
	return p, nil
}

func (s *Store) ListParticipations(ctx context.Context, volunteerID id.VolunteerID) ([]*models.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE volunteer_id = $1
		ORDER BY admission_date, created_at
	`
	return s.queryParticipations(ctx, query, uuid.UUID(volunteerID))
}

func (s *Store) ListParticipationsFor(ctx context.Context, volunteerIDs []id.VolunteerID) (map[id.VolunteerID][]*models.Participation, error) {
	out := make(map[id.VolunteerID][]*models.Participation, len(volunteerIDs))
	if len(volunteerIDs) == 0 {
		return out, nil
	}
	raw := make([]string, len(volunteerIDs))
	for i, v := range volunteerIDs {
		raw[i] = v.String()
	}
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE volunteer_id = ANY($1::uuid[])
		ORDER BY admission_date, created_at
	`
	ps, err := s.queryParticipations(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, err
	}
	for _, p := range ps {
		out[p.VolunteerID] = append(out[p.VolunteerID], p)
	}
	return out, nil
}

func (s *Store) ListActiveParticipationsByStudy(ctx context.Context, studyID id.StudyID) ([]*models.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE study_id = $1 AND payment_date IS NULL
		ORDER BY admission_date, created_at
	`
	return s.queryParticipations(ctx, query, uuid.UUID(studyID))
}

func (s *Store) queryParticipations(ctx context.Context, query string, args ...any) ([]*models.Participation, error) {
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query participations: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Participation, 0)
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participations: %w", err)
	}
	return out, nil
}

func scanParticipation(row scanner) (*models.Participation, error) {
	var (
		p               models.Participation
		participationID uuid.UUID
		volunteerID     uuid.UUID
		studyID         uuid.UUID
		payment         sql.NullTime
	)
	err := row.Scan(
		&participationID,
		&volunteerID,
		&studyID,
		&p.AdmissionDate,
		&payment,
		&p.Justification,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ID = id.ParticipationID(participationID)
	p.VolunteerID = id.VolunteerID(volunteerID)
	p.StudyID = id.StudyID(studyID)
	p.AdmissionDate = models.Day(p.AdmissionDate)
	p.PaymentDate = datePtr(payment)
	return &p, nil
}
