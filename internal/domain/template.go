package domain

import (
	"time"

	"github.com/google/uuid"
)

// CardTemplate describes how to build cards from named field values.
// Front and back templates contain {{field}} placeholders. Templates are
// used only at card-creation time and carry no scheduling state.
type CardTemplate struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	DeckID        *uuid.UUID `json:"deckId,omitempty"`
	FrontTemplate string     `json:"frontTemplate"`
	BackTemplate  string     `json:"backTemplate"`
	Fields        []string   `json:"fields"`
	Created       time.Time  `json:"created"`
	Modified      time.Time  `json:"modified"`
}
