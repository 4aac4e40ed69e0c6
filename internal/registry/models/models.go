// Package models holds the read side of the residents registry and the
// anonymous report index.
package models

import (
	"time"

	"sidesa/pkg/domain"
)

// Resident is one population registry record. Owned by the residents
// registry; the disclosure engine only reads it.
type Resident struct {
	NIK       domain.NIK
	Name      string
	SubRegion string
}

// Report is the non-identifying metadata recorded with an anonymous submission.
type Report struct {
	TicketCode  string
	SubRegion   string
	SubmittedAt time.Time
}
