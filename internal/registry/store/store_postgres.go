package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sidesa/internal/registry/models"
	"sidesa/pkg/domain"
	"sidesa/pkg/platform/sentinel"
	txcontext "sidesa/pkg/platform/tx"
)

// PostgresStore reads residents and reports from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindBySubRegion(ctx context.Context, subRegion string) ([]models.Resident, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT nik, name, sub_region
		FROM residents
		WHERE sub_region = $1
		ORDER BY seq ASC
	`, subRegion)
	if err != nil {
		return nil, fmt.Errorf("query residents: %w", err)
	}
	defer rows.Close()

	out := []models.Resident{}
	for rows.Next() {
		var (
			r   models.Resident
			nik string
		)
		if err := rows.Scan(&nik, &r.Name, &r.SubRegion); err != nil {
			return nil, fmt.Errorf("scan resident: %w", err)
		}
		r.NIK, err = domain.ParseNIK(nik)
		if err != nil {
			return nil, fmt.Errorf("resident %q has malformed nik: %w", nik, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate residents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindReportByTicket(ctx context.Context, ticketCode string) (*models.Report, error) {
	var r models.Report
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT ticket_code, sub_region, submitted_at
		FROM reports
		WHERE ticket_code = $1
	`, ticketCode).Scan(&r.TicketCode, &r.SubRegion, &r.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return &r, nil
}

// SaveResidents bulk upserts residents in slice order. Existing residents
// keep their original position.
func (s *PostgresStore) SaveResidents(ctx context.Context, residents []models.Resident) error {
	if len(residents) == 0 {
		return nil
	}
	niks := make([]string, len(residents))
	names := make([]string, len(residents))
	regions := make([]string, len(residents))
	for i, r := range residents {
		niks[i] = r.NIK.String()
		names[i] = r.Name
		regions[i] = r.SubRegion
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO residents (nik, name, sub_region)
		SELECT nik, name, sub_region FROM unnest($1::text[], $2::text[], $3::text[]) WITH ORDINALITY AS t(nik, name, sub_region, ord)
		ORDER BY ord
		ON CONFLICT (nik) DO UPDATE SET name = EXCLUDED.name, sub_region = EXCLUDED.sub_region
	`, pq.Array(niks), pq.Array(names), pq.Array(regions))
	if err != nil {
		return fmt.Errorf("save residents: %w", err)
	}
	return nil
}

// SaveReports bulk upserts report metadata.
func (s *PostgresStore) SaveReports(ctx context.Context, reports []models.Report) error {
	if len(reports) == 0 {
		return nil
	}
	tickets := make([]string, len(reports))
	regions := make([]string, len(reports))
	times := make([]string, len(reports))
	for i, r := range reports {
		tickets[i] = r.TicketCode
		regions[i] = r.SubRegion
		times[i] = r.SubmittedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO reports (ticket_code, sub_region, submitted_at)
		SELECT * FROM unnest($1::text[], $2::text[], $3::timestamptz[])
		ON CONFLICT (ticket_code) DO UPDATE SET sub_region = EXCLUDED.sub_region, submitted_at = EXCLUDED.submitted_at
	`, pq.Array(tickets), pq.Array(regions), pq.Array(times))
	if err != nil {
		return fmt.Errorf("save reports: %w", err)
	}
	return nil
}
