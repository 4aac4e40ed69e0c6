package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sidesa/pkg/domain"
	audit "sidesa/pkg/platform/audit"
	"sidesa/pkg/platform/sentinel"
	txcontext "sidesa/pkg/platform/tx"
)

// Store persists access log entries and writes each one to the outbox table in
// the same statement batch, so the relay can publish it after commit.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL-backed access log store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// OutboxPayload is the JSON document published for every appended entry.
type OutboxPayload struct {
	ID           string `json:"id"`
	Action       string `json:"action"`
	PerformedBy  string `json:"performed_by"`
	IPAddress    string `json:"ip_address,omitempty"`
	UserAgent    string `json:"user_agent,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
	TicketCode   string `json:"ticket_code,omitempty"`
	DisclosureID string `json:"disclosure_id,omitempty"`
	Detail       string `json:"detail,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// OutboxRecord is an unpublished outbox row.
type OutboxRecord struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
}

const selectEntry = `
	SELECT id, action, performed_by, ip_address, user_agent, request_id,
		   ticket_code, disclosure_id, detail, created_at
	FROM access_logs`

// Append inserts the entry and its outbox record. Callers that need both to
// commit with other writes run it inside a transaction carried in ctx.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	var disclosureID *uuid.UUID
	if !entry.DisclosureID.IsNil() {
		did := uuid.UUID(entry.DisclosureID)
		disclosureID = &did
	}

	exec := txcontext.ExecutorFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO access_logs (
			id, action, performed_by, ip_address, user_agent, request_id,
			ticket_code, disclosure_id, detail, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.UUID(entry.ID),
		string(entry.Action),
		entry.PerformedBy,
		entry.IPAddress,
		entry.UserAgent,
		entry.RequestID,
		entry.TicketCode,
		disclosureID,
		entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}

	payload := OutboxPayload{
		ID:          entry.ID.String(),
		Action:      string(entry.Action),
		PerformedBy: entry.PerformedBy,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
		RequestID:   entry.RequestID,
		TicketCode:  entry.TicketCode,
		Detail:      entry.Detail,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339Nano),
	}
	if disclosureID != nil {
		payload.DisclosureID = disclosureID.String()
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal access log payload: %w", err)
	}

	aggregateID := entry.ID.String()
	if entry.TicketCode != "" {
		aggregateID = entry.TicketCode
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.New(),
		"access_log",
		aggregateID,
		string(entry.Action),
		payloadBytes,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// List returns all entries in append order.
func (s *Store) List(ctx context.Context) ([]audit.Entry, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, selectEntry+` ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query access logs: %w", err)
	}
	defer rows.Close()

	entries := []audit.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access logs: %w", err)
	}
	return entries, nil
}

func (s *Store) FindByID(ctx context.Context, id domain.LogEntryID) (*audit.Entry, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, selectEntry+` WHERE id = $1`, uuid.UUID(id))
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// Delete removes a single entry. record-deleted entries are never removed.
func (s *Store) Delete(ctx context.Context, id domain.LogEntryID) error {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		DELETE FROM access_logs WHERE id = $1 AND action <> $2
	`, uuid.UUID(id), string(audit.ActionRecordDeleted))
	if err != nil {
		return fmt.Errorf("delete access log: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete access log rows affected: %w", err)
	}
	if rows == 0 {
		if _, findErr := s.FindByID(ctx, id); findErr == nil {
			return sentinel.ErrImmutable
		}
		return sentinel.ErrNotFound
	}
	return nil
}

// FetchUnpublished locks up to limit unpublished outbox rows, oldest first.
// It must run inside a transaction carried in ctx for the lock to hold.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY seq ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var records []OutboxRecord
	for rows.Next() {
		var r OutboxRecord
		if err := rows.Scan(&r.ID, &r.AggregateID, &r.EventType, &r.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return records, nil
}

// MarkPublished stamps the given outbox rows as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])
	`, at, pq.Array(raw))
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*audit.Entry, error) {
	var (
		entry        audit.Entry
		id           uuid.UUID
		action       string
		disclosureID *uuid.UUID
	)
	err := row.Scan(
		&id,
		&action,
		&entry.PerformedBy,
		&entry.IPAddress,
		&entry.UserAgent,
		&entry.RequestID,
		&entry.TicketCode,
		&disclosureID,
		&entry.Detail,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan access log: %w", err)
	}
	entry.ID = domain.LogEntryID(id)
	entry.Action = audit.Action(action)
	if disclosureID != nil {
		entry.DisclosureID = domain.DisclosureID(*disclosureID)
	}
	return &entry, nil
}
