package anki

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memodeck/memodeck/internal/domain"
)

// fieldSeparator splits the flds payload of an Anki note.
const fieldSeparator = "\x1f"

const cardQuery = `
	SELECT
		n.id as nid,
		n.flds as flds,
		n.tags as tags,
		c.id as cid,
		c.did as did,
		c.ivl as ivl,
		c.factor as factor,
		c.reps as reps,
		c.lapses as lapses,
		c.due as due,
		c.type as type
	FROM notes n
	JOIN cards c ON c.nid = n.id
`

// Importer maps apkg archives into the domain model through a cursor
// backend. Construct one per process with the selected backend.
type Importer struct {
	backend Backend
	now     func() time.Time
}

// NewImporter creates an importer over the given backend.
func NewImporter(backend Backend) *Importer {
	return &Importer{backend: backend, now: time.Now}
}

// ImportFromApkg extracts decks and cards from an apkg archive.
//
// Only structural failures (unreadable archive, missing collection,
// unusable database) produce Success=false; a malformed row becomes a
// warning and the remaining rows still import.
func (im *Importer) ImportFromApkg(data []byte) domain.ImportResult {
	result := domain.NewImportResult()
	now := im.now()

	blob, err := ReadCollection(data)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to import apkg: %v", err))
		return result
	}

	db, err := im.backend.Open(blob)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to open collection: %v", err))
		return result
	}
	defer db.Close()

	decks, deckMap, warnings := im.extractDecks(db, now)
	result.Warnings = append(result.Warnings, warnings...)

	// An empty collection still needs a target for its cards.
	if len(decks) == 0 {
		fallback := domain.NewDeck("Imported from Anki", "Cards imported from Anki", now)
		decks = []domain.Deck{fallback}
		deckMap = map[int64]uuid.UUID{1: fallback.ID}
	}
	result.Decks = decks

	cards, warnings := im.extractCards(db, deckMap, decks[0].ID, now)
	result.Cards = cards
	result.Warnings = append(result.Warnings, warnings...)

	if HasMedia(data) {
		result.Warnings = append(result.Warnings, "media files found but not imported (media import not supported)")
	}

	result.Success = true
	slog.Info("apkg import finished",
		"decks", len(result.Decks),
		"cards", len(result.Cards),
		"warnings", len(result.Warnings),
	)
	return result
}

// extractDecks reads the deck metadata row: the col table stores all
// decks as one JSON map of numeric id to deck object.
func (im *Importer) extractDecks(db Database, now time.Time) ([]domain.Deck, map[int64]uuid.UUID, []string) {
	var decks []domain.Deck
	deckMap := make(map[int64]uuid.UUID)
	var warnings []string

	cursor, err := db.Prepare("SELECT decks FROM col")
	if err != nil {
		return decks, deckMap, append(warnings, fmt.Sprintf("error extracting decks: %v", err))
	}
	defer cursor.Free()

	if cursor.Step() {
		raw := rowString(cursor.Row(), "decks")
		var parsed map[string]struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			warnings = append(warnings, fmt.Sprintf("error extracting decks: %v", err))
			return decks, deckMap, warnings
		}

		// Stable iteration keeps the fallback deck deterministic.
		ids := make([]string, 0, len(parsed))
		for id := range parsed {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			entry := parsed[id]
			sourceID := entry.ID
			if sourceID == 0 {
				fmt.Sscanf(id, "%d", &sourceID)
			}

			// The stock "Default" deck is not surfaced as an imported
			// deck; its cards land in the fallback deck instead.
			if entry.Name == "Default" && sourceID == 1 {
				continue
			}

			deck := domain.NewDeck(entry.Name, "Imported from Anki", now)
			decks = append(decks, deck)
			deckMap[sourceID] = deck.ID
		}
	}
	if err := cursor.Err(); err != nil {
		warnings = append(warnings, fmt.Sprintf("error extracting decks: %v", err))
	}

	return decks, deckMap, warnings
}

// extractCards runs the notes/cards join and converts each row, dropping
// malformed rows with a warning.
func (im *Importer) extractCards(db Database, deckMap map[int64]uuid.UUID, fallbackDeck uuid.UUID, now time.Time) ([]domain.Card, []string) {
	var cards []domain.Card
	var warnings []string

	cursor, err := db.Prepare(cardQuery)
	if err != nil {
		return cards, append(warnings, fmt.Sprintf("error extracting cards: %v", err))
	}
	defer cursor.Free()

	for cursor.Step() {
		row := cursor.Row()
		card, err := im.convertRow(row, deckMap, fallbackDeck, now)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping card %d: %v", rowInt(row, "cid"), err))
			continue
		}
		cards = append(cards, card)
	}
	if err := cursor.Err(); err != nil {
		warnings = append(warnings, fmt.Sprintf("error extracting cards: %v", err))
	}

	return cards, warnings
}

func (im *Importer) convertRow(row map[string]any, deckMap map[int64]uuid.UUID, fallbackDeck uuid.UUID, now time.Time) (domain.Card, error) {
	fields := strings.Split(rowString(row, "flds"), fieldSeparator)
	front := fields[0]
	back := ""
	if len(fields) > 1 {
		back = fields[1]
	}
	if front == "" {
		return domain.Card{}, fmt.Errorf("empty front field")
	}

	deckID, ok := deckMap[rowInt(row, "did")]
	if !ok {
		deckID = fallbackDeck
	}

	ivl := rowInt(row, "ivl")
	factor := rowFloat(row, "factor")
	cardType := rowInt(row, "type")

	card := domain.Card{
		ID:            uuid.New(),
		DeckID:        deckID,
		Front:         CleanHTML(front),
		Back:          CleanHTML(back),
		Created:       now,
		Modified:      now,
		Due:           dueDate(rowInt(row, "due"), cardType, now),
		Stability:     math.Max(1, float64(ivl)),
		Difficulty:    difficultyFromEase(factor),
		ElapsedDays:   clampNonNegative(ivl),
		ScheduledDays: clampNonNegative(ivl),
		Reps:          clampNonNegative(rowInt(row, "reps")),
		Lapses:        clampNonNegative(rowInt(row, "lapses")),
		State:         mapState(cardType),
	}
	return card, nil
}

// mapState translates the Anki card type ordinal (0=new, 1=learning,
// 2=review, 3=relearning) into the domain state.
func mapState(ankiType int64) domain.CardState {
	switch ankiType {
	case 0:
		return domain.StateNew
	case 1:
		return domain.StateLearning
	case 2:
		return domain.StateReview
	case 3:
		return domain.StateRelearning
	default:
		return domain.StateNew
	}
}

// difficultyFromEase converts Anki's ease factor (roughly 130-300) into
// the 1-10 difficulty scale.
func difficultyFromEase(factor float64) float64 {
	return math.Max(1, math.Min(10, (300-factor)/25))
}

// dueDate reconstructs an absolute due date from Anki's polymorphic due
// column: new cards are due now, learning cards store epoch seconds, and
// review cards store a day number. The day number is anchored on today's
// day number rather than the collection creation day, so reconstructed
// dates drift for old collections.
func dueDate(ankiDue, ankiType int64, now time.Time) time.Time {
	switch ankiType {
	case 0:
		return now
	case 1:
		return time.Unix(ankiDue, 0)
	default:
		daysFromNow := ankiDue - now.Unix()/86400
		return now.AddDate(0, 0, int(daysFromNow))
	}
}

func clampNonNegative(v int64) int {
	if v < 0 {
		return 0
	}
	return int(v)
}

func rowString(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func rowInt(row map[string]any, key string) int64 {
	switch v := row[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func rowFloat(row map[string]any, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
