// Package bulk applies maintenance operations to many cards at once.
// Every operation isolates failures per id: a missing or failing card
// is recorded and skipped, and the remaining ids are still processed.
package bulk

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/memodeck/memodeck/internal/domain"
	"github.com/memodeck/memodeck/internal/repo"
)

// Result reports how a bulk operation went.
type Result struct {
	Processed int
	Skipped   []uuid.UUID
}

// Operations runs bulk maintenance against a card repository.
type Operations struct {
	cards repo.CardRepository
	now   func() time.Time
}

// NewOperations creates a bulk operation runner.
func NewOperations(cards repo.CardRepository) *Operations {
	return &Operations{cards: cards, now: time.Now}
}

// DeleteCards removes the given cards. Missing ids are skipped.
func (o *Operations) DeleteCards(ctx context.Context, ids []uuid.UUID) (Result, error) {
	return o.each(ctx, ids, func(ctx context.Context, card domain.Card) error {
		return o.cards.DeleteCard(ctx, card.ID)
	})
}

// MoveCards reassigns the given cards to another deck.
func (o *Operations) MoveCards(ctx context.Context, ids []uuid.UUID, deckID uuid.UUID) (Result, error) {
	return o.each(ctx, ids, func(ctx context.Context, card domain.Card) error {
		card.DeckID = deckID
		card.Modified = o.now()
		return o.cards.SaveCard(ctx, card)
	})
}

// ResetCards wipes the scheduling history of the given cards, returning
// them to the New state and making them due immediately.
func (o *Operations) ResetCards(ctx context.Context, ids []uuid.UUID) (Result, error) {
	return o.each(ctx, ids, func(ctx context.Context, card domain.Card) error {
		now := o.now()
		card.State = domain.StateNew
		card.Due = now
		card.Stability = 0
		card.Difficulty = 0
		card.ElapsedDays = 0
		card.ScheduledDays = 0
		card.Reps = 0
		card.Lapses = 0
		card.LastReview = nil
		card.Modified = now
		return o.cards.SaveCard(ctx, card)
	})
}

// DuplicateCards copies the given cards as fresh New cards in the same
// deck, dropping their scheduling history.
func (o *Operations) DuplicateCards(ctx context.Context, ids []uuid.UUID) (Result, error) {
	return o.each(ctx, ids, func(ctx context.Context, card domain.Card) error {
		dup := domain.NewCard(card.DeckID, card.Front, card.Back, o.now())
		dup.TemplateID = card.TemplateID
		return o.cards.SaveCard(ctx, dup)
	})
}

// each fetches every id and applies op, skipping cards that cannot be
// loaded or saved.
func (o *Operations) each(ctx context.Context, ids []uuid.UUID, op func(context.Context, domain.Card) error) (Result, error) {
	var result Result
	for _, id := range ids {
		card, err := o.cards.GetCard(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				slog.Warn("bulk operation could not load card", "card", id, "error", err)
			}
			result.Skipped = append(result.Skipped, id)
			continue
		}
		if err := op(ctx, card); err != nil {
			slog.Warn("bulk operation failed for card", "card", id, "error", err)
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Processed++
	}
	return result, nil
}
