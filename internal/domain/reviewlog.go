package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewLog is an immutable record of one review event. The scheduling
// fields are a snapshot of the card *after* the review was applied.
// Logs are appended once and never mutated or deleted by this core.
type ReviewLog struct {
	ID            uuid.UUID `json:"id"`
	CardID        uuid.UUID `json:"cardId"`
	Rating        Rating    `json:"rating"`
	State         CardState `json:"state"`
	Due           time.Time `json:"due"`
	Stability     float64   `json:"stability"`
	Difficulty    float64   `json:"difficulty"`
	ElapsedDays   int       `json:"elapsed_days"`
	ScheduledDays int       `json:"scheduled_days"`
	Review        time.Time `json:"review"`
}
