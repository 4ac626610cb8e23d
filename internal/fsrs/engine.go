package fsrs

import (
	"time"

	"github.com/google/uuid"
	"github.com/memodeck/memodeck/internal/domain"
)

// Engine applies the scheduling algorithm to cards. It holds no mutable
// state beyond its parameters; construct one and pass it to every caller
// that reviews cards. Callers must serialize reviews of the same card.
type Engine struct {
	params *Params
}

// NewEngine creates an engine with the given parameters, falling back to
// DefaultParams when nil.
func NewEngine(params *Params) *Engine {
	if params == nil {
		params = DefaultParams()
	}
	return &Engine{params: params}
}

// ReviewCard returns the card as it stands after being reviewed with the
// given rating at the given time. The input card is not modified. The
// operation is total: any well-formed card and any rating produce a
// result, and a rating outside 1..4 falls back to Good.
func (e *Engine) ReviewCard(card domain.Card, rating domain.Rating, now time.Time) domain.Card {
	if !rating.Valid() {
		rating = domain.Good
	}

	elapsed := 0
	if card.LastReview != nil {
		elapsed = int(now.Sub(*card.LastReview).Hours() / 24)
		if elapsed < 0 {
			elapsed = 0
		}
	}

	if card.Reps == 0 {
		// First review: baseline memory state, ignoring whatever
		// stability/difficulty the card happened to carry.
		card.Stability = e.params.InitialStability[rating]
		card.Difficulty = e.params.initialDifficulty(rating)
	} else {
		card.Stability = e.params.nextStability(card.Stability, card.Difficulty, rating)
		card.Difficulty = e.params.nextDifficulty(card.Difficulty, rating)
	}

	card.State = nextState(card.State, rating)
	card.ElapsedDays = elapsed
	card.Reps++
	if rating == domain.Again {
		card.Lapses++
		card.ScheduledDays = 0
		card.Due = now.Add(time.Duration(e.params.AgainMinutes) * time.Minute)
	} else {
		card.ScheduledDays = e.params.nextIntervalDays(card.Stability)
		card.Due = now.AddDate(0, 0, card.ScheduledDays)
	}

	lastReview := now
	card.LastReview = &lastReview
	card.Modified = now

	return card
}

// nextState advances the card lifecycle. Failing a Review card demotes it
// to Relearning; Good and Easy graduate a learning card, and Easy promotes
// a New card straight to Review.
func nextState(state domain.CardState, rating domain.Rating) domain.CardState {
	switch state {
	case domain.StateNew:
		if rating == domain.Easy {
			return domain.StateReview
		}
		return domain.StateLearning
	case domain.StateLearning, domain.StateRelearning:
		if rating == domain.Good || rating == domain.Easy {
			return domain.StateReview
		}
		return state
	case domain.StateReview:
		if rating == domain.Again {
			return domain.StateRelearning
		}
		return domain.StateReview
	default:
		return domain.StateLearning
	}
}

// Projection is one possible review outcome: the card as it would look
// after the rating, plus a human-readable interval.
type Projection struct {
	Interval string
	Card     domain.Card
}

// SchedulingInfo holds the projected outcome for each of the four ratings.
type SchedulingInfo struct {
	Again Projection
	Hard  Projection
	Good  Projection
	Easy  Projection
}

// SchedulingInfo projects all four review outcomes for a card without
// mutating it. Two calls with identical inputs return identical results.
func (e *Engine) SchedulingInfo(card domain.Card, now time.Time) SchedulingInfo {
	return SchedulingInfo{
		Again: e.project(card, domain.Again, now),
		Hard:  e.project(card, domain.Hard, now),
		Good:  e.project(card, domain.Good, now),
		Easy:  e.project(card, domain.Easy, now),
	}
}

func (e *Engine) project(card domain.Card, rating domain.Rating, now time.Time) Projection {
	updated := e.ReviewCard(card, rating, now)
	days := updated.Due.Sub(now).Minutes() / (24 * 60)
	return Projection{
		Interval: FormatInterval(days),
		Card:     updated,
	}
}

// NewReviewLog builds the immutable log entry for a review, snapshotting
// the card's scheduling state after the rating was applied.
func (e *Engine) NewReviewLog(reviewed domain.Card, rating domain.Rating, now time.Time) domain.ReviewLog {
	if !rating.Valid() {
		rating = domain.Good
	}
	return domain.ReviewLog{
		ID:            uuid.New(),
		CardID:        reviewed.ID,
		Rating:        rating,
		State:         reviewed.State,
		Due:           reviewed.Due,
		Stability:     reviewed.Stability,
		Difficulty:    reviewed.Difficulty,
		ElapsedDays:   reviewed.ElapsedDays,
		ScheduledDays: reviewed.ScheduledDays,
		Review:        now,
	}
}
