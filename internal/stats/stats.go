// Package stats computes study statistics over a card set. Everything
// is recomputed from scratch on each call; there is no incremental
// state to keep consistent.
package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/memodeck/memodeck/internal/domain"
)

// Statistics is a point-in-time summary of a card set.
type Statistics struct {
	TotalCards      int     `json:"totalCards"`
	NewCards        int     `json:"newCards"`
	LearningCards   int     `json:"learningCards"`
	ReviewCards     int     `json:"reviewCards"`
	DueCards        int     `json:"dueCards"`
	ReviewedToday   int     `json:"reviewedToday"`
	ReviewedWeek    int     `json:"reviewedWeek"`
	TotalReviews    int     `json:"totalReviews"`
	RetentionRate   float64 `json:"retentionRate"`
	AverageInterval float64 `json:"averageInterval"`
}

// Calculate summarizes the cards relative to now. Relearning cards are
// pooled with learning cards. "Reviewed today" and "reviewed this week"
// count unique cards whose last review falls in the current calendar
// day and the trailing seven days respectively.
func Calculate(cards []domain.Card, now time.Time) Statistics {
	s := Statistics{TotalCards: len(cards)}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := now.AddDate(0, 0, -7)

	reviewedToday := map[uuid.UUID]struct{}{}
	reviewedWeek := map[uuid.UUID]struct{}{}
	intervalSum := 0
	scheduled := 0

	for _, card := range cards {
		switch card.State {
		case domain.StateNew:
			s.NewCards++
		case domain.StateLearning, domain.StateRelearning:
			s.LearningCards++
		case domain.StateReview:
			s.ReviewCards++
		}

		if !card.Due.After(now) {
			s.DueCards++
		}

		s.TotalReviews += card.Reps

		if card.ScheduledDays > 0 {
			intervalSum += card.ScheduledDays
			scheduled++
		}

		if card.LastReview == nil {
			continue
		}
		if !card.LastReview.Before(dayStart) && !card.LastReview.After(now) {
			reviewedToday[card.ID] = struct{}{}
		}
		if !card.LastReview.Before(weekStart) && !card.LastReview.After(now) {
			reviewedWeek[card.ID] = struct{}{}
		}
	}

	s.ReviewedToday = len(reviewedToday)
	s.ReviewedWeek = len(reviewedWeek)

	if started := s.LearningCards + s.ReviewCards; started > 0 {
		s.RetentionRate = float64(s.ReviewCards) / float64(started) * 100
	}
	if scheduled > 0 {
		s.AverageInterval = float64(intervalSum) / float64(scheduled)
	}
	return s
}

// ProgressSummary is a compact per-deck progress line.
type ProgressSummary struct {
	DeckID    uuid.UUID `json:"deckId"`
	Total     int       `json:"total"`
	Matured   int       `json:"matured"`
	Remaining int       `json:"remaining"`
	Percent   float64   `json:"percent"`
}

// Progress reports per-deck maturation: the share of cards that have
// reached the Review state.
func Progress(cards []domain.Card) []ProgressSummary {
	order := []uuid.UUID{}
	byDeck := map[uuid.UUID]*ProgressSummary{}

	for _, card := range cards {
		summary, ok := byDeck[card.DeckID]
		if !ok {
			summary = &ProgressSummary{DeckID: card.DeckID}
			byDeck[card.DeckID] = summary
			order = append(order, card.DeckID)
		}
		summary.Total++
		if card.State == domain.StateReview {
			summary.Matured++
		}
	}

	summaries := make([]ProgressSummary, 0, len(order))
	for _, id := range order {
		summary := byDeck[id]
		summary.Remaining = summary.Total - summary.Matured
		if summary.Total > 0 {
			summary.Percent = float64(summary.Matured) / float64(summary.Total) * 100
		}
		summaries = append(summaries, *summary)
	}
	return summaries
}
