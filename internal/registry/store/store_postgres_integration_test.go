//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sidesa/internal/registry/models"
	"sidesa/internal/registry/store"
	"sidesa/pkg/platform/sentinel"
	"sidesa/pkg/testutil/containers"
)

type PostgresRegistrySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresRegistrySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRegistrySuite))
}

func (s *PostgresRegistrySuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresRegistrySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "residents", "reports"))
}

func (s *PostgresRegistrySuite) TestFindBySubRegionKeepsImportOrder() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveResidents(ctx, []models.Resident{
		{NIK: "3201010101010003", Name: "Citra", SubRegion: "RT 03"},
		{NIK: "3201010101010001", Name: "Ani", SubRegion: "RT 03"},
		{NIK: "3201010101010009", Name: "Rina", SubRegion: "RT 04"},
		{NIK: "3201010101010002", Name: "Budi", SubRegion: "RT 03"},
	}))

	got, err := s.store.FindBySubRegion(ctx, "RT 03")
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal("Citra", got[0].Name)
	s.Equal("Ani", got[1].Name)
	s.Equal("Budi", got[2].Name)

	none, err := s.store.FindBySubRegion(ctx, "rt 03")
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *PostgresRegistrySuite) TestReimportUpdatesInPlace() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveResidents(ctx, []models.Resident{
		{NIK: "3201010101010001", Name: "Ani", SubRegion: "RT 03"},
		{NIK: "3201010101010002", Name: "Budi", SubRegion: "RT 03"},
	}))
	s.Require().NoError(s.store.SaveResidents(ctx, []models.Resident{
		{NIK: "3201010101010001", Name: "Ani Lestari", SubRegion: "RT 03"},
	}))

	got, err := s.store.FindBySubRegion(ctx, "RT 03")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Ani Lestari", got[0].Name)
}

func (s *PostgresRegistrySuite) TestFindReportByTicket() {
	ctx := context.Background()
	submitted := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.SaveReports(ctx, []models.Report{
		{TicketCode: "ASP-1", SubRegion: "RT 03", SubmittedAt: submitted},
	}))

	r, err := s.store.FindReportByTicket(ctx, "ASP-1")
	s.Require().NoError(err)
	s.Equal("RT 03", r.SubRegion)
	s.True(submitted.Equal(r.SubmittedAt))

	_, err = s.store.FindReportByTicket(ctx, "ASP-404")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
