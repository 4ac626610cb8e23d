// Package storage is the sqlite implementation of the repository
// contracts. It is the only package that knows the table layout.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/memodeck/memodeck/internal/domain"
)

// DB represents a wrapper around the SQL database connection. It
// implements the card, deck, and review log repositories.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
// Foreign keys are enabled on every pooled connection so deck deletion
// cascades reliably.
func Open(dsn string) (*DB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const cardColumns = `id, deck_id, front, back, template_id, created, modified,
	due, stability, difficulty, elapsed_days, scheduled_days, reps, lapses, state, last_review`

// GetCard retrieves one card by id.
func (db *DB) GetCard(ctx context.Context, id uuid.UUID) (domain.Card, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards WHERE id = ?
	`, id.String())

	card, err := scanCard(row)
	if err == sql.ErrNoRows {
		return domain.Card{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	return card, nil
}

// GetCardsByDeck retrieves all cards in a deck.
func (db *DB) GetCardsByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards WHERE deck_id = ?
		ORDER BY created
	`, deckID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for deck %s: %w", deckID, err)
	}
	return collectCards(rows)
}

// GetDueCards retrieves cards due at or before the given time, oldest
// first. A nil deckID means all decks.
func (db *DB) GetDueCards(ctx context.Context, due time.Time, deckID *uuid.UUID) ([]domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards WHERE due <= ?`
	args := []any{due}
	if deckID != nil {
		query += ` AND deck_id = ?`
		args = append(args, deckID.String())
	}
	query += ` ORDER BY due`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	return collectCards(rows)
}

// GetAllCards retrieves every card.
func (db *DB) GetAllCards(ctx context.Context) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards ORDER BY created
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all cards: %w", err)
	}
	return collectCards(rows)
}

// GetCardCount counts the cards in a deck.
func (db *DB) GetCardCount(ctx context.Context, deckID uuid.UUID) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM cards WHERE deck_id = ?
	`, deckID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cards for deck %s: %w", deckID, err)
	}
	return count, nil
}

// SaveCard inserts or replaces a card.
func (db *DB) SaveCard(ctx context.Context, card domain.Card) error {
	var templateID any
	if card.TemplateID != nil {
		templateID = card.TemplateID.String()
	}
	var lastReview sql.NullTime
	if card.LastReview != nil {
		lastReview = sql.NullTime{Time: *card.LastReview, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID.String(),
		card.DeckID.String(),
		card.Front,
		card.Back,
		templateID,
		card.Created,
		card.Modified,
		card.Due,
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.Reps,
		card.Lapses,
		int(card.State),
		lastReview,
	)
	if err != nil {
		return fmt.Errorf("failed to save card %s: %w", card.ID, err)
	}
	return nil
}

// DeleteCard removes a card by id.
func (db *DB) DeleteCard(ctx context.Context, id uuid.UUID) error {
	_, err := db.conn.ExecContext(ctx, `
		DELETE FROM cards WHERE id = ?
	`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

// GetDeck retrieves one deck by id.
func (db *DB) GetDeck(ctx context.Context, id uuid.UUID) (domain.Deck, error) {
	var deck domain.Deck
	var rawID string
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, description, created, modified
		FROM decks WHERE id = ?
	`, id.String()).Scan(&rawID, &deck.Name, &deck.Description, &deck.Created, &deck.Modified)
	if err == sql.ErrNoRows {
		return domain.Deck{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to get deck %s: %w", id, err)
	}
	deck.ID, err = uuid.Parse(rawID)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to parse deck id %q: %w", rawID, err)
	}
	return deck, nil
}

// GetAllDecks retrieves every deck, oldest first.
func (db *DB) GetAllDecks(ctx context.Context) ([]domain.Deck, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, description, created, modified
		FROM decks ORDER BY created
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all decks: %w", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		var deck domain.Deck
		var rawID string
		if err := rows.Scan(&rawID, &deck.Name, &deck.Description, &deck.Created, &deck.Modified); err != nil {
			return nil, fmt.Errorf("failed to scan deck row: %w", err)
		}
		deck.ID, err = uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse deck id %q: %w", rawID, err)
		}
		decks = append(decks, deck)
	}
	return decks, rows.Err()
}

// SaveDeck inserts or replaces a deck.
func (db *DB) SaveDeck(ctx context.Context, deck domain.Deck) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO decks (id, name, description, created, modified)
		VALUES (?, ?, ?, ?, ?)
	`, deck.ID.String(), deck.Name, deck.Description, deck.Created, deck.Modified)
	if err != nil {
		return fmt.Errorf("failed to save deck %s: %w", deck.ID, err)
	}
	return nil
}

// DeleteDeck removes a deck; its cards go with it via the foreign key
// cascade.
func (db *DB) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	_, err := db.conn.ExecContext(ctx, `
		DELETE FROM decks WHERE id = ?
	`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete deck %s: %w", id, err)
	}
	return nil
}

// SaveReviewLog appends one review event.
func (db *DB) SaveReviewLog(ctx context.Context, log domain.ReviewLog) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO review_logs (id, card_id, rating, state, due, stability, difficulty,
			elapsed_days, scheduled_days, review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		log.ID.String(),
		log.CardID.String(),
		int(log.Rating),
		int(log.State),
		log.Due,
		log.Stability,
		log.Difficulty,
		log.ElapsedDays,
		log.ScheduledDays,
		log.Review,
	)
	if err != nil {
		return fmt.Errorf("failed to save review log %s: %w", log.ID, err)
	}
	return nil
}

// GetReviewLogsByCard retrieves the review history of one card, oldest
// first.
func (db *DB) GetReviewLogsByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, card_id, rating, state, due, stability, difficulty,
			elapsed_days, scheduled_days, review
		FROM review_logs WHERE card_id = ?
		ORDER BY review
	`, cardID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get review logs for card %s: %w", cardID, err)
	}
	return collectReviewLogs(rows)
}

// GetReviewLogsSince retrieves all review events at or after the given
// time.
func (db *DB) GetReviewLogsSince(ctx context.Context, since time.Time) ([]domain.ReviewLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, card_id, rating, state, due, stability, difficulty,
			elapsed_days, scheduled_days, review
		FROM review_logs WHERE review >= ?
		ORDER BY review
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get review logs since %s: %w", since, err)
	}
	return collectReviewLogs(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (domain.Card, error) {
	var card domain.Card
	var rawID, rawDeckID string
	var templateID sql.NullString
	var state int
	var lastReview sql.NullTime

	err := row.Scan(
		&rawID,
		&rawDeckID,
		&card.Front,
		&card.Back,
		&templateID,
		&card.Created,
		&card.Modified,
		&card.Due,
		&card.Stability,
		&card.Difficulty,
		&card.ElapsedDays,
		&card.ScheduledDays,
		&card.Reps,
		&card.Lapses,
		&state,
		&lastReview,
	)
	if err != nil {
		return domain.Card{}, err
	}

	if card.ID, err = uuid.Parse(rawID); err != nil {
		return domain.Card{}, fmt.Errorf("failed to parse card id %q: %w", rawID, err)
	}
	if card.DeckID, err = uuid.Parse(rawDeckID); err != nil {
		return domain.Card{}, fmt.Errorf("failed to parse deck id %q: %w", rawDeckID, err)
	}
	if templateID.Valid {
		id, err := uuid.Parse(templateID.String)
		if err != nil {
			return domain.Card{}, fmt.Errorf("failed to parse template id %q: %w", templateID.String, err)
		}
		card.TemplateID = &id
	}
	card.State = domain.CardState(state)
	if lastReview.Valid {
		card.LastReview = &lastReview.Time
	}
	return card, nil
}

func collectCards(rows *sql.Rows) ([]domain.Card, error) {
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func collectReviewLogs(rows *sql.Rows) ([]domain.ReviewLog, error) {
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var log domain.ReviewLog
		var rawID, rawCardID string
		var rating, state int
		if err := rows.Scan(
			&rawID,
			&rawCardID,
			&rating,
			&state,
			&log.Due,
			&log.Stability,
			&log.Difficulty,
			&log.ElapsedDays,
			&log.ScheduledDays,
			&log.Review,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse review log id %q: %w", rawID, err)
		}
		cardID, err := uuid.Parse(rawCardID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse review log card id %q: %w", rawCardID, err)
		}
		log.ID = id
		log.CardID = cardID
		log.Rating = domain.Rating(rating)
		log.State = domain.CardState(state)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
