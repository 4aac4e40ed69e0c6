//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	platformpg "sidesa/internal/platform/postgres"
	"sidesa/pkg/domain"
	audit "sidesa/pkg/platform/audit"
	"sidesa/pkg/platform/audit/store/postgres"
	"sidesa/pkg/platform/sentinel"
	"sidesa/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	tx       *platformpg.TxRunner
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.tx = platformpg.NewTxRunner(s.postgres.DB, 5*time.Second)
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "access_logs", "outbox"))
}

func entry(action audit.Action, ticket string) audit.Entry {
	return audit.Entry{
		ID:           domain.NewLogEntryID(),
		Action:       action,
		PerformedBy:  "op-root",
		IPAddress:    "203.0.113.7",
		UserAgent:    "Firefox 128 on Linux",
		RequestID:    "req-1",
		TicketCode:   ticket,
		DisclosureID: domain.NewDisclosureID(),
		Detail:       "1 candidates",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *AuditStoreSuite) TestAppendWritesEntryAndOutboxRow() {
	ctx := context.Background()
	e := entry(audit.ActionMatchComputed, "ASP-1")
	s.Require().NoError(s.store.Append(ctx, e))

	found, err := s.store.FindByID(ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e.Action, found.Action)
	s.Equal(e.DisclosureID, found.DisclosureID)
	s.Equal(e.UserAgent, found.UserAgent)

	var records []postgres.OutboxRecord
	s.Require().NoError(s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		records, err = s.store.FetchUnpublished(txCtx, 10)
		return err
	}))
	s.Require().Len(records, 1)
	s.Equal("ASP-1", records[0].AggregateID)
	s.Equal(string(audit.ActionMatchComputed), records[0].EventType)

	var payload postgres.OutboxPayload
	s.Require().NoError(json.Unmarshal(records[0].Payload, &payload))
	s.Equal(e.ID.String(), payload.ID)
	s.Equal(e.DisclosureID.String(), payload.DisclosureID)
}

func (s *AuditStoreSuite) TestListIsAppendOrdered() {
	ctx := context.Background()
	first := entry(audit.ActionAccessDenied, "ASP-1")
	second := entry(audit.ActionRequestRejected, "ASP-2")
	s.Require().NoError(s.store.Append(ctx, first))
	s.Require().NoError(s.store.Append(ctx, second))

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(first.ID, all[0].ID)
	s.Equal(second.ID, all[1].ID)
}

func (s *AuditStoreSuite) TestRecordDeletedEntriesAreImmutable() {
	ctx := context.Background()
	permanent := entry(audit.ActionRecordDeleted, "ASP-1")
	s.Require().NoError(s.store.Append(ctx, permanent))

	s.ErrorIs(s.store.Delete(ctx, permanent.ID), sentinel.ErrImmutable)
	s.ErrorIs(s.store.Delete(ctx, domain.NewLogEntryID()), sentinel.ErrNotFound)

	removable := entry(audit.ActionDisclosureViewed, "ASP-1")
	s.Require().NoError(s.store.Append(ctx, removable))
	s.Require().NoError(s.store.Delete(ctx, removable.ID))
}

func (s *AuditStoreSuite) TestMarkPublishedHidesRows() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, entry(audit.ActionAccessDenied, "ASP-1")))
	s.Require().NoError(s.store.Append(ctx, entry(audit.ActionAccessDenied, "ASP-2")))

	s.Require().NoError(s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		records, err := s.store.FetchUnpublished(txCtx, 1)
		if err != nil {
			return err
		}
		s.Require().Len(records, 1)
		return s.store.MarkPublished(txCtx, []uuid.UUID{records[0].ID}, time.Now())
	}))

	s.Require().NoError(s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		records, err := s.store.FetchUnpublished(txCtx, 10)
		if err != nil {
			return err
		}
		s.Require().Len(records, 1)
		s.Equal("ASP-2", records[0].AggregateID)
		return nil
	}))
}
