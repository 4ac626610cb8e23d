package domain

import (
	"time"

	"github.com/google/uuid"
)

// CardState is the scheduling lifecycle stage of a card.
type CardState int

const (
	StateNew CardState = iota
	StateLearning
	StateReview
	StateRelearning
)

// String returns the lowercase name of the state.
func (s CardState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateLearning:
		return "learning"
	case StateReview:
		return "review"
	case StateRelearning:
		return "relearning"
	default:
		return "unknown"
	}
}

// Rating is the user's response to a card review.
// The values correspond to FSRS ratings:
// 1: Again (Incorrect)
// 2: Hard
// 3: Good
// 4: Easy
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Valid reports whether the rating is one of the four defined values.
func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

// Card represents a single front/back flashcard together with its
// scheduling state. Front and Back may carry lightweight inline markup
// (**bold**, *italic*, `code`); the core passes it through untouched.
type Card struct {
	ID         uuid.UUID  `json:"id"`
	DeckID     uuid.UUID  `json:"deckId"`
	Front      string     `json:"front"`
	Back       string     `json:"back"`
	TemplateID *uuid.UUID `json:"templateId,omitempty"`
	Created    time.Time  `json:"created"`
	Modified   time.Time  `json:"modified"`

	// Scheduling state, maintained by the scheduling engine.
	Due           time.Time  `json:"due"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ElapsedDays   int        `json:"elapsed_days"`
	ScheduledDays int        `json:"scheduled_days"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	State         CardState  `json:"state"`
	LastReview    *time.Time `json:"last_review,omitempty"`
}

// NewCard creates a card in the baseline New state, due immediately.
func NewCard(deckID uuid.UUID, front, back string, now time.Time) Card {
	return Card{
		ID:       uuid.New(),
		DeckID:   deckID,
		Front:    front,
		Back:     back,
		Created:  now,
		Modified: now,
		Due:      now,
		State:    StateNew,
	}
}

// Validate checks the card's scheduling invariants.
func (c Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}
	if c.DeckID == uuid.Nil {
		return ErrCardDeckEmpty
	}
	if c.Front == "" {
		return ErrCardFrontEmpty
	}
	if c.Reps == 0 && c.State != StateNew {
		return ErrCardStateInvalid
	}
	if (c.LastReview != nil) != (c.Reps > 0) {
		return ErrCardStateInvalid
	}
	if c.Reps < 0 || c.Lapses < 0 || c.ElapsedDays < 0 || c.ScheduledDays < 0 {
		return ErrCardStateInvalid
	}
	return nil
}
