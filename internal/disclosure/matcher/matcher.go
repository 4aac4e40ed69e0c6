// Package matcher narrows an anonymous report to candidate residents.
// The result is a heuristic, never proof of identity.
package matcher

import (
	"math"
	"slices"
	"strings"
	"time"

	"sidesa/internal/disclosure/models"
	"sidesa/pkg/domain"
)

// Report is the weak metadata recorded with an anonymous submission.
type Report struct {
	TicketCode  string
	SubRegion   string
	SubmittedAt time.Time
}

// Resident is a population registry record as seen by the matcher.
type Resident struct {
	NIK       domain.NIK
	Name      string
	SubRegion string
}

// Match filters population to the report's sub-region and scores each
// candidate with an equal baseline of 100/max(1, n) percent, rounded to two
// decimals. Candidates are sorted by probability, highest first; ties keep
// population order. Same inputs always give the same output.
func Match(report Report, population []Resident) []models.Candidate {
	region := strings.TrimSpace(report.SubRegion)

	filtered := make([]Resident, 0, len(population))
	for _, r := range population {
		if r.SubRegion == region {
			filtered = append(filtered, r)
		}
	}

	baseline := BaselineProbability(len(filtered))
	candidates := make([]models.Candidate, 0, len(filtered))
	for _, r := range filtered {
		candidates = append(candidates, models.Candidate{
			NIK:         r.NIK,
			Name:        r.Name,
			SubRegion:   r.SubRegion,
			Probability: baseline,
		})
	}

	slices.SortStableFunc(candidates, func(a, b models.Candidate) int {
		switch {
		case a.Probability > b.Probability:
			return -1
		case a.Probability < b.Probability:
			return 1
		default:
			return 0
		}
	})
	return candidates
}

// BaselineProbability is the equal share for n candidates as a percentage in [0, 100].
func BaselineProbability(n int) float64 {
	p := 100.0 / float64(max(1, n))
	p = math.Round(p*100) / 100
	return min(100, max(0, p))
}
