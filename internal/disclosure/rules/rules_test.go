package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidesa/pkg/domain"
	dErrors "sidesa/pkg/domain-errors"
)

const validReason = "Pelapor menyampaikan ancaman kekerasan terhadap warga RT 03 malam ini"

func validInput() Input {
	return Input{
		RequesterRole: domain.RoleSuperAdmin,
		TicketCode:    "ASP-2026-014",
		TicketFound:   true,
		RequestReason: validReason,
		AuthorizedBy:  "Kapolsek Cibiru",
	}
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, Validate(validInput()))
}

func TestValidate_RuleOrder(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Input)
		wantCode   dErrors.Code
		wantReason string
	}{
		{
			name: "role fails before everything else",
			mutate: func(in *Input) {
				in.RequesterRole = domain.RoleAdmin
				in.TicketFound = false
				in.RequestReason = ""
				in.AuthorizedBy = ""
			},
			wantCode: dErrors.CodeForbidden,
		},
		{
			name: "empty role is not privileged",
			mutate: func(in *Input) {
				in.RequesterRole = ""
			},
			wantCode: dErrors.CodeForbidden,
		},
		{
			name: "missing ticket before reason rules",
			mutate: func(in *Input) {
				in.TicketFound = false
				in.RequestReason = "short"
				in.AuthorizedBy = ""
			},
			wantCode: dErrors.CodeNotFound,
		},
		{
			name: "empty ticket code",
			mutate: func(in *Input) {
				in.TicketCode = "   "
				in.TicketFound = false
			},
			wantCode:   dErrors.CodeValidation,
			wantReason: ReasonMissingTicketCode,
		},
		{
			name: "short reason before keyword and authorizer",
			mutate: func(in *Input) {
				in.RequestReason = "ancaman"
				in.AuthorizedBy = ""
			},
			wantCode:   dErrors.CodeValidation,
			wantReason: ReasonTooShort,
		},
		{
			name: "keyword before authorizer",
			mutate: func(in *Input) {
				in.RequestReason = strings.Repeat("warga melapor keributan ", 3)
				in.AuthorizedBy = ""
			},
			wantCode:   dErrors.CodeValidation,
			wantReason: ReasonMissingUrgencyKeyword,
		},
		{
			name: "authorizer",
			mutate: func(in *Input) {
				in.AuthorizedBy = "  "
			},
			wantCode:   dErrors.CodeValidation,
			wantReason: ReasonMissingAuthorizer,
		},
		{
			name: "official document too long",
			mutate: func(in *Input) {
				in.OfficialDocument = strings.Repeat("9", 101)
			},
			wantCode:   dErrors.CodeValidation,
			wantReason: ReasonOfficialDocumentTooLong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := Validate(in)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, dErrors.CodeOf(err))
			assert.Equal(t, tt.wantReason, dErrors.ReasonOf(err))
		})
	}
}

func TestValidate_ReasonLengthCountsCharacters(t *testing.T) {
	in := validInput()
	// 49 characters once trimmed, padded with whitespace.
	in.RequestReason = "   " + "ancaman " + strings.Repeat("é", 41) + "   "
	err := Validate(in)
	require.Error(t, err)
	assert.Equal(t, ReasonTooShort, dErrors.ReasonOf(err))

	in.RequestReason = "ancaman " + strings.Repeat("é", 42)
	assert.NoError(t, Validate(in))
}

func TestValidate_KeywordGateIgnoresCase(t *testing.T) {
	filler := " terjadi di wilayah dusun dan perlu ditindaklanjuti segera oleh aparat"
	for _, kw := range []string{"POLICE", "police", "Police", "ANCAMAN", "Pengadilan", "ViOlEnCe", "ilegal"} {
		t.Run(kw, func(t *testing.T) {
			in := validInput()
			in.RequestReason = kw + filler
			assert.NoError(t, Validate(in))
		})
	}
}

func TestValidate_NoKeywordAlwaysRejected(t *testing.T) {
	reasons := []string{
		strings.Repeat("a", 50),
		"Warga meminta identitas pelapor karena penasaran dengan isi laporan tersebut",
		"THE RESIDENTS WANT TO KNOW WHO WROTE THIS COMPLAINT ABOUT THE ROAD REPAIRS",
	}
	for _, r := range reasons {
		in := validInput()
		in.RequestReason = r
		err := Validate(in)
		require.Error(t, err)
		assert.Equal(t, ReasonMissingUrgencyKeyword, dErrors.ReasonOf(err))
	}
}

func TestCheckRole(t *testing.T) {
	assert.NoError(t, CheckRole(domain.RoleSuperAdmin))
	for _, r := range []domain.Role{domain.RoleAdmin, domain.RoleOperator, "", "SUPER_ADMIN"} {
		err := CheckRole(r)
		require.Error(t, err, "role %q", r)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	}
}
