package httptransport_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"sidesa/internal/auth/token"
	contentHandler "sidesa/internal/content/handler"
	contentService "sidesa/internal/content/service"
	contentStore "sidesa/internal/content/store"
	"sidesa/internal/disclosure/adapters"
	disclosureHandler "sidesa/internal/disclosure/handler"
	disclosureService "sidesa/internal/disclosure/service"
	"sidesa/internal/disclosure/store/idempotency"
	disclosureStore "sidesa/internal/disclosure/store/memory"
	ratelimitmw "sidesa/internal/ratelimit/middleware"
	ratelimitmodels "sidesa/internal/ratelimit/models"
	ratelimitstore "sidesa/internal/ratelimit/store"
	registrymodels "sidesa/internal/registry/models"
	registryService "sidesa/internal/registry/service"
	registryStore "sidesa/internal/registry/store"
	sessionService "sidesa/internal/session/service"
	sessionStore "sidesa/internal/session/store"
	httptransport "sidesa/internal/transport/http"
	"sidesa/pkg/domain"
	"sidesa/pkg/platform/audit/recorder"
	auditStore "sidesa/pkg/platform/audit/store/memory"
	"sidesa/pkg/testutil"
)

const adminToken = "override-secret"

type RouterSuite struct {
	suite.Suite
	deps     httptransport.Deps
	router   http.Handler
	tokens   *token.JWTService
	sessions *sessionService.Service
	logs     *auditStore.InMemoryStore
	healthy  error
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	registry := registryStore.NewInMemoryStore()
	s.Require().NoError(registry.SaveReport(ctx, registrymodels.Report{
		TicketCode:  "ASP-7K2Q",
		SubRegion:   "RT 03",
		SubmittedAt: time.Now().Add(-time.Hour),
	}))
	s.Require().NoError(registry.SaveResident(ctx, registrymodels.Resident{
		NIK:       "3201010101010001",
		Name:      "Ani",
		SubRegion: "RT 03",
	}))

	s.logs = auditStore.NewInMemoryStore()
	disclosures := disclosureService.New(
		adapters.NewRegistryAdapter(registryService.New(registry, registry)),
		disclosureStore.NewInMemoryStore(),
		recorder.New(s.logs),
		disclosureService.NewLockedTx(time.Second),
		disclosureService.WithIdempotency(idempotency.NewInMemoryStore(), time.Hour),
		disclosureService.WithLogger(logger),
	)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	s.Require().NoError(err)

	s.tokens = token.NewJWTService("router-test-signing-key", "sidesa")
	s.sessions = sessionService.New(sessionStore.NewInMemoryStore(), sessionService.WithIdleTimeout(time.Minute))
	s.healthy = nil

	s.deps = httptransport.Deps{
		Disclosure:     disclosureHandler.New(disclosures, logger),
		Content:        contentHandler.New(contentService.New(contentStore.NewInMemoryStore(), logger), logger),
		Tokens:         token.NewMiddlewareAdapter(s.tokens),
		Sessions:       s.sessions,
		AdminTokenHash: string(hash),
		Health: map[string]httptransport.HealthFunc{
			"database": func(context.Context) error { return s.healthy },
		},
		Logger: logger,
	}
	s.router = httptransport.NewRouter(s.deps)
}

func (s *RouterSuite) bearer(role domain.Role) string {
	session, err := s.sessions.Start(context.Background(), "op-"+string(role), role)
	s.Require().NoError(err)
	signed, err := s.tokens.IssueToken(token.Operator{
		ID:        "op-" + string(role),
		Role:      role,
		SessionID: session.ID,
	}, time.Hour)
	s.Require().NoError(err)
	return "Bearer " + signed
}

func (s *RouterSuite) submitBody() map[string]any {
	return map[string]any{
		"ticket_code":    "ASP-7K2Q",
		"request_reason": "Laporan ancaman terhadap pelapor memerlukan tindak lanjut aparat segera",
		"authorized_by":  "Kepala Desa",
	}
}

func (s *RouterSuite) TestHealth() {
	t := s.T()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)

	s.healthy = errors.New("connection refused")
	rr = testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}

func (s *RouterSuite) TestPublicContentNeedsNoToken() {
	t := s.T()
	rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/content/hero"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	s.Equal("application/json", rr.Header().Get("Content-Type"))
}

func (s *RouterSuite) TestDisclosureRoutesRequireToken() {
	t := s.T()
	rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/disclosures"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	entries, err := s.logs.List(context.Background())
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *RouterSuite) TestSuperAdminSubmitsAndReadsHistory() {
	t := s.T()
	auth := s.bearer(domain.RoleSuperAdmin)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/disclosures", s.submitBody())
	req.Header.Set("Authorization", auth)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	submitted := testutil.UnmarshalResponse[disclosureHandler.SubmitResponse](t, rr)
	require.Len(t, submitted.Candidates, 1)
	s.Equal(100.0, submitted.Candidates[0].Probability)

	req = testutil.NewRequest(t, http.MethodGet, "/disclosures")
	req.Header.Set("Authorization", auth)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(t, rr)
	history := testutil.UnmarshalResponse[disclosureHandler.HistoryResponse](t, rr)
	require.Len(t, history.Requests, 1)
	s.Equal(submitted.RequestID, history.Requests[0].ID)
}

func (s *RouterSuite) TestOperatorIsRefusedAndAudited() {
	t := s.T()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/disclosures", s.submitBody())
	req.Header.Set("Authorization", s.bearer(domain.RoleOperator))

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	entries, err := s.logs.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("op-operator", entries[0].PerformedBy)
}

func (s *RouterSuite) TestEndedSessionIsRejected() {
	t := s.T()
	session, err := s.sessions.Start(context.Background(), "op-root", domain.RoleSuperAdmin)
	s.Require().NoError(err)
	signed, err := s.tokens.IssueToken(token.Operator{ID: "op-root", Role: domain.RoleSuperAdmin, SessionID: session.ID}, time.Hour)
	s.Require().NoError(err)
	s.Require().NoError(s.sessions.End(context.Background(), session.ID))

	req := testutil.NewRequest(t, http.MethodGet, "/disclosures")
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func (s *RouterSuite) TestAdminOverrideNeedsAdminToken() {
	t := s.T()
	auth := s.bearer(domain.RoleSuperAdmin)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/disclosures", s.submitBody())
	req.Header.Set("Authorization", auth)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	id := testutil.UnmarshalResponse[disclosureHandler.SubmitResponse](t, rr).RequestID

	req = testutil.NewRequest(t, http.MethodDelete, "/admin/disclosures/"+id)
	req.Header.Set("Authorization", auth)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	req = testutil.NewRequest(t, http.MethodDelete, "/admin/disclosures/"+id)
	req.Header.Set("Authorization", auth)
	req.Header.Set("X-Admin-Token", adminToken)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(t, rr, http.StatusNoContent)
}

func (s *RouterSuite) TestOperatorRateLimit() {
	t := s.T()
	limiter := ratelimitmw.New(ratelimitstore.NewInMemoryStore(),
		ratelimitmodels.Policy{Limit: 1, Window: time.Minute},
		slog.New(slog.DiscardHandler),
	)
	s.deps.RateLimit = limiter.LimitOperator
	router := httptransport.NewRouter(s.deps)
	auth := s.bearer(domain.RoleSuperAdmin)

	req := testutil.NewRequest(t, http.MethodGet, "/disclosures")
	req.Header.Set("Authorization", auth)
	testutil.AssertStatusOK(t, testutil.DoRequest(router, req))

	req = testutil.NewRequest(t, http.MethodGet, "/disclosures")
	req.Header.Set("Authorization", auth)
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusTooManyRequests, "rate_limit_exceeded")

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/content/hero"))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
