package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidesa/internal/registry/store"
)

const fixture = `
residents:
  - nik: "3201010101010001"
    name: Ani
    sub_region: Dusun Krajan
  - nik: "3201010101010002"
    name: " Budi "
    sub_region: Dusun Krajan
reports:
  - ticket_code: ASP-2026-001
    sub_region: Dusun Krajan
    submitted_at: 2026-02-01T09:30:00+07:00
`

func TestImport(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()

	fx, err := Import(ctx, strings.NewReader(fixture), s)
	require.NoError(t, err)
	assert.Len(t, fx.Residents, 2)
	assert.Equal(t, "Budi", fx.Residents[1].Name)

	residents, err := s.FindBySubRegion(ctx, "Dusun Krajan")
	require.NoError(t, err)
	assert.Len(t, residents, 2)

	report, err := s.FindReportByTicket(ctx, "ASP-2026-001")
	require.NoError(t, err)
	assert.Equal(t, 2, report.SubmittedAt.Hour())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "malformed nik",
			input:   "residents:\n  - nik: \"12\"\n    name: A\n    sub_region: R\n",
			wantErr: "residents[0]",
		},
		{
			name:    "duplicate nik",
			input:   "residents:\n  - nik: \"3201010101010001\"\n    name: A\n    sub_region: R\n  - nik: \"3201010101010001\"\n    name: B\n    sub_region: R\n",
			wantErr: "duplicates residents[0]",
		},
		{
			name:    "report without ticket",
			input:   "reports:\n  - sub_region: R\n",
			wantErr: "reports[0]",
		},
		{
			name:    "unknown field",
			input:   "residents:\n  - nik: \"3201010101010001\"\n    name: A\n    sub_region: R\n    address: x\n",
			wantErr: "decode fixture",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	fx, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fx.Residents)
	assert.Empty(t, fx.Reports)
}
