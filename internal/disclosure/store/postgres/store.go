package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"sidesa/internal/disclosure/models"
	"sidesa/pkg/domain"
	"sidesa/pkg/platform/sentinel"
	txcontext "sidesa/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists disclosure requests. Candidates are stored as a
// JSONB array in their ranked order.
type PostgresStore struct {
	db *sql.DB
}

func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type candidateRow struct {
	NIK         string  `json:"nik"`
	Name        string  `json:"name"`
	SubRegion   string  `json:"sub_region"`
	Probability float64 `json:"probability"`
}

const selectRequest = `
	SELECT id, ticket_code, requested_by, request_reason, official_document,
		   authorized_by, disclosed_niks, created_at
	FROM disclosure_requests`

func (s *PostgresStore) Insert(ctx context.Context, req *models.DisclosureRequest) error {
	rows := make([]candidateRow, len(req.DisclosedNIKs))
	for i, c := range req.DisclosedNIKs {
		rows[i] = candidateRow{
			NIK:         c.NIK.String(),
			Name:        c.Name,
			SubRegion:   c.SubRegion,
			Probability: c.Probability,
		}
	}
	candidates, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}

	_, err = txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO disclosure_requests (
			id, ticket_code, requested_by, request_reason, official_document,
			authorized_by, disclosed_niks, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(req.ID),
		req.TicketCode,
		req.RequestedBy,
		req.RequestReason,
		req.OfficialDocument,
		req.AuthorizedBy,
		candidates,
		req.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert disclosure request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DisclosureID) (*models.DisclosureRequest, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, selectRequest+` WHERE id = $1`, uuid.UUID(id))
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// List returns all requests, oldest first.
func (s *PostgresStore) List(ctx context.Context) ([]*models.DisclosureRequest, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, selectRequest+` ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query disclosure requests: %w", err)
	}
	defer rows.Close()

	out := []*models.DisclosureRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate disclosure requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.DisclosureID) error {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		DELETE FROM disclosure_requests WHERE id = $1
	`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete disclosure request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete disclosure request rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.DisclosureRequest, error) {
	var (
		req        models.DisclosureRequest
		id         uuid.UUID
		candidates []byte
	)
	err := row.Scan(
		&id,
		&req.TicketCode,
		&req.RequestedBy,
		&req.RequestReason,
		&req.OfficialDocument,
		&req.AuthorizedBy,
		&candidates,
		&req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan disclosure request: %w", err)
	}
	req.ID = domain.DisclosureID(id)

	var rows []candidateRow
	if err := json.Unmarshal(candidates, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	req.DisclosedNIKs = make([]models.Candidate, len(rows))
	for i, r := range rows {
		req.DisclosedNIKs[i] = models.Candidate{
			NIK:         domain.NIK(r.NIK),
			Name:        r.Name,
			SubRegion:   r.SubRegion,
			Probability: r.Probability,
		}
	}
	return &req, nil
}
