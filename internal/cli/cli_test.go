package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidesa/internal/auth/token"
	"sidesa/internal/disclosure/adapters"
	"sidesa/internal/disclosure/models"
	disclosureService "sidesa/internal/disclosure/service"
	disclosureStore "sidesa/internal/disclosure/store/memory"
	registryService "sidesa/internal/registry/service"
	registryStore "sidesa/internal/registry/store"
	sessionService "sidesa/internal/session/service"
	sessionStore "sidesa/internal/session/store"
	"sidesa/pkg/domain"
	audit "sidesa/pkg/platform/audit"
	"sidesa/pkg/platform/audit/recorder"
	auditStore "sidesa/pkg/platform/audit/store/memory"
	"sidesa/pkg/requestcontext"
)

const fixture = `
residents:
  - nik: "3201010101010001"
    name: Ani
    sub_region: RT 03
  - nik: "3201010101010002"
    name: Budi
    sub_region: RT 03
reports:
  - ticket_code: ASP-7K2Q
    sub_region: RT 03
    submitted_at: 2026-03-12T08:00:00Z
`

type testEnv struct {
	registry    *registryStore.InMemoryStore
	logs        *auditStore.InMemoryStore
	disclosures *disclosureService.Service
	tokens      *token.JWTService
	sessions    *sessionService.Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		registry: registryStore.NewInMemoryStore(),
		logs:     auditStore.NewInMemoryStore(),
		tokens:   token.NewJWTService("cli-test-signing-key", "sidesa"),
		sessions: sessionService.New(sessionStore.NewInMemoryStore()),
	}
	env.disclosures = disclosureService.New(
		adapters.NewRegistryAdapter(registryService.New(env.registry, env.registry)),
		disclosureStore.NewInMemoryStore(),
		recorder.New(env.logs),
		disclosureService.NewLockedTx(time.Second),
	)
	return env
}

func (e *testEnv) open(context.Context) (*Backend, error) {
	return &Backend{
		Disclosures: e.disclosures,
		Registry:    e.registry,
		Tokens:      e.tokens,
		TokenTTL:    time.Hour,
		Sessions:    e.sessions,
		Close:       func() {},
	}, nil
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(e.open)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))
	_, err := e.run(t, "import-residents", path)
	require.NoError(t, err)
}

func (e *testEnv) submit(t *testing.T) *models.SubmitResult {
	t.Helper()
	ctx := requestcontext.WithOperator(context.Background(), requestcontext.Caller{ID: "op-root", Role: domain.RoleSuperAdmin})
	res, err := e.disclosures.Submit(ctx, models.Submission{
		TicketCode:    "ASP-7K2Q",
		RequestReason: "Laporan ancaman terhadap pelapor memerlukan tindak lanjut aparat segera",
		AuthorizedBy:  "Kepala Desa",
	})
	require.NoError(t, err)
	return res
}

func decode(t *testing.T, out string, data any) Response {
	t.Helper()
	resp := Response{Data: data}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(newTestEnv().open)
	for _, name := range []string{"history", "logs", "delete-request", "delete-log", "import-residents", "issue-token"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := newTestEnv().run(t, "history", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImportResidents(t *testing.T) {
	env := newTestEnv()
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	out, err := env.run(t, "import-residents", path, "--format", "json")
	require.NoError(t, err)

	var counts map[string]int
	resp := decode(t, out, &counts)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]int{"residents": 2, "reports": 1}, counts)

	residents, err := env.registry.FindBySubRegion(context.Background(), "RT 03")
	require.NoError(t, err)
	assert.Len(t, residents, 2)
}

func TestHistoryIsAuditedUnderConsoleOperator(t *testing.T) {
	env := newTestEnv()
	env.seed(t)
	submitted := env.submit(t)

	out, err := env.run(t, "history", "--format", "json", "--operator", "op-console")
	require.NoError(t, err)

	var history struct {
		Requests []struct {
			ID         string `json:"id"`
			Candidates []any  `json:"candidates"`
		} `json:"requests"`
	}
	decode(t, out, &history)
	require.Len(t, history.Requests, 1)
	assert.Equal(t, submitted.RequestID.String(), history.Requests[0].ID)
	assert.Len(t, history.Requests[0].Candidates, 2)

	entries, err := env.logs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionMatchComputed, entries[0].Action)
	assert.Equal(t, audit.ActionDisclosureViewed, entries[1].Action)
	assert.Equal(t, "op-console", entries[1].PerformedBy)
}

func TestHistoryTextCarriesDisclaimer(t *testing.T) {
	env := newTestEnv()
	env.seed(t)
	env.submit(t)

	out, err := env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "ASP-7K2Q")
	assert.Contains(t, out, models.Disclaimer)
}

func TestDeleteRequestThenPermanentLog(t *testing.T) {
	env := newTestEnv()
	env.seed(t)
	submitted := env.submit(t)

	out, err := env.run(t, "delete-request", submitted.RequestID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted disclosure request")

	entries, err := env.logs.List(context.Background())
	require.NoError(t, err)
	var deleted audit.Entry
	for _, e := range entries {
		if e.Action == audit.ActionRecordDeleted {
			deleted = e
		}
	}
	require.False(t, deleted.ID.IsNil())

	out, err = env.run(t, "delete-log", deleted.ID.String(), "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitRefused, GetExitCode(err))
	resp := decode(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "forbidden", resp.Error.Code)
}

func TestDeleteRequestRejectsMalformedID(t *testing.T) {
	_, err := newTestEnv().run(t, "delete-request", "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestIssueToken(t *testing.T) {
	env := newTestEnv()

	out, err := env.run(t, "issue-token", "--operator-id", "op-7", "--role", "super_admin", "--format", "json")
	require.NoError(t, err)

	var issued IssuedToken
	decode(t, out, &issued)
	require.NotEmpty(t, issued.SessionID)

	claims, err := env.tokens.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "op-7", claims.OperatorID)
	assert.Equal(t, "super_admin", claims.Role)
	assert.Equal(t, issued.SessionID, claims.SessionID)

	sessionID, err := domain.ParseSessionID(issued.SessionID)
	require.NoError(t, err)
	assert.NoError(t, env.sessions.Touch(context.Background(), sessionID))
}

func TestIssueTokenRejectsUnknownRole(t *testing.T) {
	_, err := newTestEnv().run(t, "issue-token", "--operator-id", "op-7", "--role", "kades")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
