package domain

import (
	"strings"

	dErrors "sidesa/pkg/domain-errors"
)

// NIK is a 16-digit population registry identifier (Nomor Induk Kependudukan).
type NIK string

const nikLength = 16

// ParseNIK validates a population registry identifier.
func ParseNIK(s string) (NIK, error) {
	s = strings.TrimSpace(s)
	if len(s) != nikLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "nik must be 16 digits")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "nik must contain digits only")
		}
	}
	return NIK(s), nil
}

func (n NIK) String() string {
	return string(n)
}
