package domain

import (
	"time"

	"github.com/google/uuid"
)

// Encounter represents one logged contact between a case worker and a client.
// Every encounter references exactly one existing client record; an orphaned
// encounter is a data-corruption state the reconciler must never produce.
type Encounter struct {
	// ID is the internal identifier.
	ID uuid.UUID

	// ClientID references the owning client record.
	ClientID uuid.UUID

	// OccurredAt is when the contact happened.
	OccurredAt time.Time

	// Worker is the case worker who logged the contact.
	Worker string

	// Location is a free-form location description.
	Location string

	// Notes holds free-form contact notes.
	Notes string

	// CreatedAt is when the encounter was recorded.
	CreatedAt time.Time
}

// NewEncounter creates an encounter owned by the given client.
func NewEncounter(clientID uuid.UUID, occurredAt time.Time) *Encounter {
	return &Encounter{
		ID:         uuid.New(),
		ClientID:   clientID,
		OccurredAt: occurredAt,
		CreatedAt:  time.Now().UTC(),
	}
}
