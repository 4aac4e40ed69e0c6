// Package models defines the portal's editable content sections.
//
// A section is one of a closed set of kinds, each with a fixed schema. On the
// wire a section travels in an envelope:
//
//	{"kind": "hero", "data": {"title": "...", "subtitle": "..."}}
//
// Unknown kinds are rejected rather than stored as free-form documents.
package models

import (
	"bytes"
	"encoding/json"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	dErrors "sidesa/pkg/domain-errors"
)

type Kind string

const (
	KindHero         Kind = "hero"
	KindAnnouncement Kind = "announcement"
	KindContact      Kind = "contact"
	KindStatistics   Kind = "statistics"
)

// Section is implemented by every content kind.
type Section interface {
	Kind() Kind
	Validate() error
}

var registry = map[Kind]func() Section{
	KindHero:         func() Section { return &Hero{} },
	KindAnnouncement: func() Section { return &Announcement{} },
	KindContact:      func() Section { return &Contact{} },
	KindStatistics:   func() Section { return &Statistics{} },
}

// ParseKind rejects kinds outside the registry.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if _, ok := registry[k]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown content kind")
	}
	return k, nil
}

// Kinds lists every registered kind.
func Kinds() []Kind {
	return []Kind{KindHero, KindAnnouncement, KindContact, KindStatistics}
}

// Envelope is the wire form of a section.
type Envelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Decode builds the concrete section named by kind from data and validates it.
func Decode(kind Kind, data []byte) (Section, error) {
	newSection, ok := registry[kind]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown content kind")
	}
	section := newSection()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(section); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+string(kind)+" section")
	}
	if err := section.Validate(); err != nil {
		return nil, err
	}
	return section, nil
}

// DecodeEnvelope decodes {"kind","data"} into its concrete section.
func DecodeEnvelope(raw []byte) (Section, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid content envelope")
	}
	return Decode(env.Kind, env.Data)
}

// Encode wraps a section in its envelope.
func Encode(s Section) (Envelope, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return Envelope{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode section")
	}
	return Envelope{Kind: s.Kind(), Data: data}, nil
}

type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

func (*Hero) Kind() Kind { return KindHero }

func (h *Hero) Validate() error {
	if err := requireText("title", h.Title, 120); err != nil {
		return err
	}
	if utf8.RuneCountInString(h.Subtitle) > 240 {
		return dErrors.New(dErrors.CodeValidation, "subtitle is too long")
	}
	return validURL("image_url", h.ImageURL)
}

type Announcement struct {
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at"`
	Pinned      bool      `json:"pinned,omitempty"`
}

func (*Announcement) Kind() Kind { return KindAnnouncement }

func (a *Announcement) Validate() error {
	if err := requireText("title", a.Title, 160); err != nil {
		return err
	}
	if err := requireText("body", a.Body, 10000); err != nil {
		return err
	}
	if a.PublishedAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "published_at is required")
	}
	return nil
}

type Contact struct {
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address"`
	OfficeHours string `json:"office_hours,omitempty"`
}

func (*Contact) Kind() Kind { return KindContact }

func (c *Contact) Validate() error {
	if err := requireText("address", c.Address, 300); err != nil {
		return err
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return dErrors.New(dErrors.CodeValidation, "email is invalid")
		}
	}
	if c.Phone == "" && c.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "phone or email is required")
	}
	return nil
}

type Statistics struct {
	Population int       `json:"population"`
	Households int       `json:"households"`
	AreaKm2    float64   `json:"area_km2"`
	Hamlets    int       `json:"hamlets"`
	AsOf       time.Time `json:"as_of"`
}

func (*Statistics) Kind() Kind { return KindStatistics }

func (s *Statistics) Validate() error {
	if s.Population < 0 || s.Households < 0 || s.Hamlets < 0 || s.AreaKm2 < 0 {
		return dErrors.New(dErrors.CodeValidation, "statistics cannot be negative")
	}
	if s.Households > s.Population {
		return dErrors.New(dErrors.CodeValidation, "households cannot exceed population")
	}
	if s.AsOf.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "as_of is required")
	}
	return nil
}

func requireText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	if utf8.RuneCountInString(value) > max {
		return dErrors.New(dErrors.CodeValidation, field+" is too long")
	}
	return nil
}

func validURL(field, value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return dErrors.New(dErrors.CodeValidation, field+" must be an absolute http(s) URL")
	}
	return nil
}
