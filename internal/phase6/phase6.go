// Package phase6 imports vocabulary exports from the Phase6 family of
// learning apps: tag-based text exports and delimited text with a
// header row. The six learning phases are mapped onto the scheduling
// model with a fixed lookup.
package phase6

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memodeck/memodeck/internal/domain"
)

// DefaultDeckName is used when the caller does not name the import.
const DefaultDeckName = "Phase6 Import"

// phaseIntervals maps phase 1..6 to scheduled days: daily, every two
// days, every four days, weekly, fortnightly, monthly.
var phaseIntervals = [6]int{1, 2, 4, 7, 14, 30}

// Importer converts Phase6 exports into the domain model.
type Importer struct {
	now func() time.Time
}

// NewImporter creates a Phase6 importer.
func NewImporter() *Importer {
	return &Importer{now: time.Now}
}

// ImportFromXML parses a tag-based export. Finding no usable entries is
// a structural failure; individual unusable entries are dropped at scan
// time.
func (im *Importer) ImportFromXML(content, deckName string) domain.ImportResult {
	result := domain.NewImportResult()
	now := im.now()

	entries := parseXMLEntries(content)
	if len(entries) == 0 {
		result.Errors = append(result.Errors, "no vocabulary entries found in XML file")
		return result
	}

	deck := im.newDeck(deckName, fmt.Sprintf("Imported from Phase6 (%d cards)", len(entries)), now)
	result.Decks = append(result.Decks, deck)

	for _, entry := range entries {
		result.Cards = append(result.Cards, im.convertEntry(entry, deck.ID, now, &result))
	}

	result.Success = len(result.Cards) > 0
	slog.Info("phase6 XML import finished", "cards", len(result.Cards), "warnings", len(result.Warnings))
	return result
}

// ImportFromCSV parses a delimited export with a header row. Too little
// content is reported before any row is processed.
func (im *Importer) ImportFromCSV(content, deckName string) domain.ImportResult {
	result := domain.NewImportResult()
	now := im.now()

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		result.Errors = append(result.Errors, "CSV file must contain at least a header and one entry")
		return result
	}

	deck := im.newDeck(deckName, "Imported from Phase6", now)
	result.Decks = append(result.Decks, deck)

	layout := detectColumns(lines[0])
	for i, line := range lines[1:] {
		fields := parseDelimitedLine(strings.TrimSpace(line))
		entry := vocabEntry{
			question: strings.TrimSpace(fieldAt(fields, layout.question)),
			answer:   strings.TrimSpace(fieldAt(fields, layout.answer)),
			phase:    parsePhase(fieldAt(fields, layout.phase)),
			date:     strings.TrimSpace(fieldAt(fields, layout.date)),
		}
		if entry.question == "" || entry.answer == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("skipping row %d: missing question or answer", i+2))
			continue
		}
		result.Cards = append(result.Cards, im.convertEntry(entry, deck.ID, now, &result))
	}

	result.Success = len(result.Cards) > 0
	slog.Info("phase6 CSV import finished", "cards", len(result.Cards), "warnings", len(result.Warnings))
	return result
}

func (im *Importer) newDeck(name, description string, now time.Time) domain.Deck {
	if strings.TrimSpace(name) == "" {
		name = DefaultDeckName
	}
	return domain.NewDeck(name, description, now)
}

// convertEntry maps one vocabulary entry onto the scheduling model.
// The phase is clamped into 1..6 before the lookup.
func (im *Importer) convertEntry(entry vocabEntry, deckID uuid.UUID, now time.Time, result *domain.ImportResult) domain.Card {
	phase := clampPhase(entry.phase)

	scheduledDays := phaseIntervals[phase-1]
	stability := float64(phase * 5)
	difficulty := float64(7 - phase)
	if difficulty < 1 {
		difficulty = 1
	}

	state := domain.StateReview
	if phase <= 2 {
		state = domain.StateLearning
	}
	reps := phase - 1

	card := domain.Card{
		ID:            uuid.New(),
		DeckID:        deckID,
		Front:         entry.question,
		Back:          entry.answer,
		Created:       now,
		Modified:      now,
		Due:           now.AddDate(0, 0, scheduledDays),
		Stability:     stability,
		Difficulty:    difficulty,
		ElapsedDays:   0,
		ScheduledDays: scheduledDays,
		Reps:          reps,
		Lapses:        0,
		State:         state,
	}

	// A study date only makes sense for a card with review history.
	if entry.date != "" && reps > 0 {
		if studied, err := parseStudyDate(entry.date); err == nil {
			card.LastReview = &studied
		} else {
			result.Warnings = append(result.Warnings, fmt.Sprintf("ignoring unparsable study date %q", entry.date))
		}
	}

	return card
}

func clampPhase(phase int) int {
	if phase < 1 {
		return 1
	}
	if phase > 6 {
		return 6
	}
	return phase
}

func parsePhase(field string) int {
	phase, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil || phase == 0 {
		return 1
	}
	return phase
}

func parseStudyDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}
