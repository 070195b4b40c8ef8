package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClientRecord represents a person under case management.
// The ID is immutable and unique; every other field is mutable by case workers.
type ClientRecord struct {
	// ID is the internal, opaque, immutable identifier.
	ID uuid.UUID

	// Code is the human-facing client code printed on intake paperwork.
	Code string

	// FirstName is the legal first name.
	FirstName string

	// MiddleName is the legal middle name, if recorded.
	MiddleName string

	// LastName is the legal last name.
	LastName string

	// Nickname is the name the client goes by in the field, if any.
	Nickname string

	// Alias is an "also known as" name, if any.
	Alias string

	// DOB is the date of birth. Optional; many intakes lack one.
	DOB *time.Time

	// Gender is a free-form demographic field, not used for identity.
	Gender string

	// Program is the outreach program the client is enrolled in.
	Program string

	// Notes holds free-form case worker notes.
	Notes string

	// LastEncounterAt is the most recent encounter date on file, denormalized
	// onto the roster snapshot for search ordering and duplicate-warning UI.
	// Nil when the client has no encounters.
	LastEncounterAt *time.Time

	// CreatedAt is when the record was created by intake.
	CreatedAt time.Time

	// UpdatedAt is when the record was last modified.
	UpdatedAt time.Time
}

// NewClientRecord creates a client record with a fresh ID and timestamps.
func NewClientRecord(code, firstName, lastName string) *ClientRecord {
	now := time.Now().UTC()
	return &ClientRecord{
		ID:        uuid.New(),
		Code:      code,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FullName returns "First Last", skipping empty parts.
func (c *ClientRecord) FullName() string {
	parts := make([]string, 0, 2)
	if c.FirstName != "" {
		parts = append(parts, c.FirstName)
	}
	if c.LastName != "" {
		parts = append(parts, c.LastName)
	}
	return strings.Join(parts, " ")
}

// Validate checks that the record carries the minimum identity fields.
func (c *ClientRecord) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return NewValidationError("first_name", "first name is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return NewValidationError("last_name", "last name is required")
	}
	return nil
}
