package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trialreg/internal/audit"
	id "trialreg/pkg/domain"
	txcontext "trialreg/pkg/platform/tx"
)

// Store implements audit.Store on the audit_log table, which doubles as the
// transactional outbox: rows with a NULL published_at are pending relay.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an entry using the caller's transaction when one is bound to ctx.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}

	var userID *uuid.UUID
	if !entry.Actor.UserID.IsNil() {
		uid := uuid.UUID(entry.Actor.UserID)
		userID = &uid
	}

	query := `
		INSERT INTO audit_log (
			id, ts, user_id, username, action, model, record_id,
			justification, changes, client, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		entry.Timestamp,
		userID,
		entry.Actor.Username,
		string(entry.Action),
		string(entry.Model),
		entry.RecordID,
		entry.Justification,
		string(changes),
		entry.Client,
		entry.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, ts, user_id, username, action, model, record_id,
		   justification, changes, client, request_id, published_at
	FROM audit_log
`

// List returns entries newest first.
func (s *Store) List(ctx context.Context, filter audit.ListFilter) ([]*audit.Entry, error) {
	filter.Normalize()

	query := selectColumns + `
		WHERE ($1::text = '' OR model = $1::text)
		ORDER BY ts DESC, id DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, string(filter.Model), filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListUnpublished returns the oldest pending entries. A single relay is
// expected per deployment; duplicates from overlapping relays are tolerated
// downstream because delivery is at-least-once.
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]*audit.Entry, error) {
	query := selectColumns + `
		WHERE published_at IS NULL
		ORDER BY ts ASC
		LIMIT $1
	`
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// MarkPublished stamps relayed entries.
func (s *Store) MarkPublished(ctx context.Context, ids []id.AuditEntryID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, entryID := range ids {
		raw[i] = entryID.String()
	}
	query := `UPDATE audit_log SET published_at = $1 WHERE id = ANY($2::uuid[]) AND published_at IS NULL`
	if _, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query, at, pq.Array(raw)); err != nil {
		return fmt.Errorf("mark audit entries published: %w", err)
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]*audit.Entry, error) {
	entries := make([]*audit.Entry, 0)
	for rows.Next() {
		var (
			entry       audit.Entry
			entryID     uuid.UUID
			userID      *uuid.UUID
			action      string
			model       string
			changes     []byte
			publishedAt sql.NullTime
		)
		err := rows.Scan(
			&entryID,
			&entry.Timestamp,
			&userID,
			&entry.Actor.Username,
			&action,
			&model,
			&entry.RecordID,
			&entry.Justification,
			&changes,
			&entry.Client,
			&entry.RequestID,
			&publishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ID = id.AuditEntryID(entryID)
		if userID != nil {
			entry.Actor.UserID = id.UserID(*userID)
		}
		entry.Action = audit.Action(action)
		entry.Model = audit.Model(model)
		if err := json.Unmarshal(changes, &entry.Changes); err != nil {
			return nil, fmt.Errorf("decode audit changes: %w", err)
		}
		if publishedAt.Valid {
			ts := publishedAt.Time
			entry.PublishedAt = &ts
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
