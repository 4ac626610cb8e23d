package domain

import (
	"time"

	"github.com/google/uuid"
)

// Deck is a named collection of cards. Cascade deletion of a deck's
// cards is enforced by the repository, not here.
type Deck struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

// NewDeck creates a deck with a fresh identity.
func NewDeck(name, description string, now time.Time) Deck {
	return Deck{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Created:     now,
		Modified:    now,
	}
}
