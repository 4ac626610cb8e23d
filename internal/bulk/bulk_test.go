package bulk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memodeck/memodeck/internal/domain"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// fakeCardRepo is an in-memory CardRepository for exercising bulk
// operations.
type fakeCardRepo struct {
	cards   map[uuid.UUID]domain.Card
	saveErr map[uuid.UUID]error
}

func newFakeCardRepo(cards ...domain.Card) *fakeCardRepo {
	repo := &fakeCardRepo{cards: map[uuid.UUID]domain.Card{}, saveErr: map[uuid.UUID]error{}}
	for _, card := range cards {
		repo.cards[card.ID] = card
	}
	return repo
}

func (r *fakeCardRepo) GetCard(_ context.Context, id uuid.UUID) (domain.Card, error) {
	card, ok := r.cards[id]
	if !ok {
		return domain.Card{}, domain.ErrNotFound
	}
	return card, nil
}

func (r *fakeCardRepo) GetCardsByDeck(_ context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	var out []domain.Card
	for _, card := range r.cards {
		if card.DeckID == deckID {
			out = append(out, card)
		}
	}
	return out, nil
}

func (r *fakeCardRepo) GetDueCards(_ context.Context, due time.Time, deckID *uuid.UUID) ([]domain.Card, error) {
	var out []domain.Card
	for _, card := range r.cards {
		if card.Due.After(due) {
			continue
		}
		if deckID != nil && card.DeckID != *deckID {
			continue
		}
		out = append(out, card)
	}
	return out, nil
}

func (r *fakeCardRepo) GetAllCards(_ context.Context) ([]domain.Card, error) {
	var out []domain.Card
	for _, card := range r.cards {
		out = append(out, card)
	}
	return out, nil
}

func (r *fakeCardRepo) GetCardCount(_ context.Context, deckID uuid.UUID) (int, error) {
	cards, _ := r.GetCardsByDeck(context.Background(), deckID)
	return len(cards), nil
}

func (r *fakeCardRepo) SaveCard(_ context.Context, card domain.Card) error {
	if err := r.saveErr[card.ID]; err != nil {
		return err
	}
	r.cards[card.ID] = card
	return nil
}

func (r *fakeCardRepo) DeleteCard(_ context.Context, id uuid.UUID) error {
	delete(r.cards, id)
	return nil
}

func reviewedCard(deckID uuid.UUID) domain.Card {
	card := domain.NewCard(deckID, "front", "back", testNow.AddDate(0, 0, -10))
	card.State = domain.StateReview
	card.Stability = 15
	card.Difficulty = 4
	card.Reps = 5
	card.Lapses = 1
	card.ScheduledDays = 12
	card.Due = testNow.AddDate(0, 0, 2)
	last := testNow.AddDate(0, 0, -10)
	card.LastReview = &last
	return card
}

func newTestOperations(repo *fakeCardRepo) *Operations {
	ops := NewOperations(repo)
	ops.now = func() time.Time { return testNow }
	return ops
}

func TestResetCardsSkipsMissing(t *testing.T) {
	card := reviewedCard(uuid.New())
	repo := newFakeCardRepo(card)
	missing := uuid.New()

	result, err := newTestOperations(repo).ResetCards(context.Background(), []uuid.UUID{card.ID, missing})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, []uuid.UUID{missing}, result.Skipped)

	got := repo.cards[card.ID]
	assert.Equal(t, domain.StateNew, got.State)
	assert.Equal(t, 0, got.Reps)
	assert.Equal(t, 0, got.Lapses)
	assert.Equal(t, testNow, got.Due)
	assert.Nil(t, got.LastReview)
}

func TestDeleteCards(t *testing.T) {
	a := reviewedCard(uuid.New())
	b := reviewedCard(uuid.New())
	repo := newFakeCardRepo(a, b)

	result, err := newTestOperations(repo).DeleteCards(context.Background(), []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	_, ok := repo.cards[a.ID]
	assert.False(t, ok)
	_, ok = repo.cards[b.ID]
	assert.True(t, ok)
}

func TestMoveCards(t *testing.T) {
	card := reviewedCard(uuid.New())
	repo := newFakeCardRepo(card)
	target := uuid.New()

	result, err := newTestOperations(repo).MoveCards(context.Background(), []uuid.UUID{card.ID}, target)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	got := repo.cards[card.ID]
	assert.Equal(t, target, got.DeckID)
	assert.Equal(t, testNow, got.Modified)
	// Scheduling state travels with the card.
	assert.Equal(t, 5, got.Reps)
	assert.Equal(t, domain.StateReview, got.State)
}

func TestDuplicateCards(t *testing.T) {
	card := reviewedCard(uuid.New())
	repo := newFakeCardRepo(card)

	result, err := newTestOperations(repo).DuplicateCards(context.Background(), []uuid.UUID{card.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	require.Len(t, repo.cards, 2)

	for id, got := range repo.cards {
		if id == card.ID {
			continue
		}
		assert.Equal(t, card.Front, got.Front)
		assert.Equal(t, card.Back, got.Back)
		assert.Equal(t, card.DeckID, got.DeckID)
		assert.Equal(t, domain.StateNew, got.State)
		assert.Equal(t, 0, got.Reps)
	}
}

func TestBulkSaveFailureIsolated(t *testing.T) {
	a := reviewedCard(uuid.New())
	b := reviewedCard(uuid.New())
	repo := newFakeCardRepo(a, b)
	repo.saveErr[a.ID] = errors.New("disk full")
	target := uuid.New()

	result, err := newTestOperations(repo).MoveCards(context.Background(), []uuid.UUID{a.ID, b.ID}, target)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, []uuid.UUID{a.ID}, result.Skipped)
	assert.Equal(t, target, repo.cards[b.ID].DeckID)
}
