package domain

import (
	"testing"
)

// FuzzParseDisclosureID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseDisclosureID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE disclosure_requests;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseDisclosureID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Error("parse accepted nil UUID")
		}
		roundTrip, err := ParseDisclosureID(id.String())
		if err != nil {
			t.Errorf("valid ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
	})
}

// FuzzParseNIK checks the digit-only invariant holds for any accepted input.
func FuzzParseNIK(f *testing.F) {
	f.Add("3201010101010001")
	f.Add("")
	f.Add("abcdefghijklmnop")

	f.Fuzz(func(t *testing.T, input string) {
		nik, err := ParseNIK(input)
		if err != nil {
			return
		}
		if len(nik) != nikLength {
			t.Errorf("accepted NIK of length %d", len(nik))
		}
		for _, c := range nik {
			if c < '0' || c > '9' {
				t.Errorf("accepted non-digit %q", c)
			}
		}
	})
}
