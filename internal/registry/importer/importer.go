// Package importer loads resident and report fixtures from YAML.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sidesa/internal/registry/models"
	"sidesa/pkg/domain"
)

// Sink receives parsed records.
type Sink interface {
	SaveResidents(ctx context.Context, residents []models.Resident) error
	SaveReports(ctx context.Context, reports []models.Report) error
}

type residentDoc struct {
	NIK       string `yaml:"nik"`
	Name      string `yaml:"name"`
	SubRegion string `yaml:"sub_region"`
}

type reportDoc struct {
	TicketCode  string    `yaml:"ticket_code"`
	SubRegion   string    `yaml:"sub_region"`
	SubmittedAt time.Time `yaml:"submitted_at"`
}

type document struct {
	Residents []residentDoc `yaml:"residents"`
	Reports   []reportDoc   `yaml:"reports"`
}

// Fixture is a parsed, validated import file.
type Fixture struct {
	Residents []models.Resident
	Reports   []models.Report
}

// Parse decodes r and validates every record. All problems are reported together.
func Parse(r io.Reader) (*Fixture, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	var (
		fx   Fixture
		errs []error
		seen = make(map[string]int)
	)
	for i, d := range doc.Residents {
		nik, err := domain.ParseNIK(d.NIK)
		if err != nil {
			errs = append(errs, fmt.Errorf("residents[%d]: %w", i, err))
			continue
		}
		name := strings.TrimSpace(d.Name)
		region := strings.TrimSpace(d.SubRegion)
		if name == "" || region == "" {
			errs = append(errs, fmt.Errorf("residents[%d]: name and sub_region are required", i))
			continue
		}
		if prev, dup := seen[nik.String()]; dup {
			errs = append(errs, fmt.Errorf("residents[%d]: nik duplicates residents[%d]", i, prev))
			continue
		}
		seen[nik.String()] = i
		fx.Residents = append(fx.Residents, models.Resident{NIK: nik, Name: name, SubRegion: region})
	}
	for i, d := range doc.Reports {
		ticket := strings.TrimSpace(d.TicketCode)
		region := strings.TrimSpace(d.SubRegion)
		if ticket == "" || region == "" {
			errs = append(errs, fmt.Errorf("reports[%d]: ticket_code and sub_region are required", i))
			continue
		}
		fx.Reports = append(fx.Reports, models.Report{
			TicketCode:  ticket,
			SubRegion:   region,
			SubmittedAt: d.SubmittedAt.UTC(),
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &fx, nil
}

// Import parses r and writes the records to sink.
func Import(ctx context.Context, r io.Reader, sink Sink) (*Fixture, error) {
	fx, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if err := sink.SaveResidents(ctx, fx.Residents); err != nil {
		return nil, fmt.Errorf("import residents: %w", err)
	}
	if err := sink.SaveReports(ctx, fx.Reports); err != nil {
		return nil, fmt.Errorf("import reports: %w", err)
	}
	return fx, nil
}
