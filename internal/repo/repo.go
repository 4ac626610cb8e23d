// Package repo defines the persistence contracts consumed by the rest
// of the application. Implementations live elsewhere; nothing here
// depends on a concrete storage technology.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/memodeck/memodeck/internal/domain"
)

// CardRepository stores and retrieves cards.
type CardRepository interface {
	GetCard(ctx context.Context, id uuid.UUID) (domain.Card, error)
	GetCardsByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)
	// GetDueCards returns cards due at or before the given time. A nil
	// deckID means all decks.
	GetDueCards(ctx context.Context, due time.Time, deckID *uuid.UUID) ([]domain.Card, error)
	GetAllCards(ctx context.Context) ([]domain.Card, error)
	GetCardCount(ctx context.Context, deckID uuid.UUID) (int, error)
	SaveCard(ctx context.Context, card domain.Card) error
	DeleteCard(ctx context.Context, id uuid.UUID) error
}

// DeckRepository stores and retrieves decks. Deleting a deck removes
// its cards as well.
type DeckRepository interface {
	GetDeck(ctx context.Context, id uuid.UUID) (domain.Deck, error)
	GetAllDecks(ctx context.Context) ([]domain.Deck, error)
	SaveDeck(ctx context.Context, deck domain.Deck) error
	DeleteDeck(ctx context.Context, id uuid.UUID) error
}

// ReviewLogRepository stores the append-only review history.
type ReviewLogRepository interface {
	SaveReviewLog(ctx context.Context, log domain.ReviewLog) error
	GetReviewLogsByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewLog, error)
	GetReviewLogsSince(ctx context.Context, since time.Time) ([]domain.ReviewLog, error)
}
