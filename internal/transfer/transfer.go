// Package transfer moves cards in and out of the application in neutral
// formats: delimited text for spreadsheet users and a versioned JSON
// envelope for full-fidelity backup.
package transfer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memodeck/memodeck/internal/domain"
)

// envelopeVersion identifies the JSON export layout.
const envelopeVersion = "1.0"

// Envelope is the versioned JSON export container.
type Envelope struct {
	Version    string        `json:"version"`
	ExportDate time.Time     `json:"exportDate"`
	Deck       DeckInfo      `json:"deck"`
	Cards      []domain.Card `json:"cards"`
}

// DeckInfo carries deck metadata in an export, without identity.
type DeckInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Adapter converts between cards and the transfer formats.
type Adapter struct {
	now func() time.Time
}

// NewAdapter creates a transfer adapter.
func NewAdapter() *Adapter {
	return &Adapter{now: time.Now}
}

// ExportCSV renders cards as delimited text with a front,back,tags
// header; the deck name fills the tags column. Fields containing a
// comma, quote, or newline are quoted with doubled inner quotes.
func (a *Adapter) ExportCSV(cards []domain.Card, deck domain.Deck) string {
	tag := escapeField(deck.Name)

	var b strings.Builder
	b.WriteString("front,back,tags\n")
	for _, card := range cards {
		b.WriteString(escapeField(card.Front))
		b.WriteByte(',')
		b.WriteString(escapeField(card.Back))
		b.WriteByte(',')
		b.WriteString(tag)
		b.WriteByte('\n')
	}
	return b.String()
}

// ImportCSV parses delimited text into new cards in the target deck.
// A first line containing "front" is treated as a header and skipped.
// Rows missing either the front or the back field are dropped.
func (a *Adapter) ImportCSV(text string, deckID uuid.UUID) []domain.Card {
	now := a.now()
	cards := []domain.Card{}

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if i == 0 && strings.Contains(strings.ToLower(line), "front") {
			continue
		}
		fields := parseCSVLine(line)
		if len(fields) < 2 {
			continue
		}
		front := strings.TrimSpace(fields[0])
		back := strings.TrimSpace(fields[1])
		if front == "" || back == "" {
			continue
		}
		cards = append(cards, domain.NewCard(deckID, front, back, now))
	}
	return cards
}

// ExportJSON renders cards and deck metadata as a versioned envelope
// with full scheduling fidelity.
func (a *Adapter) ExportJSON(cards []domain.Card, deck domain.Deck) (string, error) {
	envelope := Envelope{
		Version:    envelopeVersion,
		ExportDate: a.now(),
		Deck:       DeckInfo{Name: deck.Name, Description: deck.Description},
		Cards:      cards,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding export: %w", err)
	}
	return string(data), nil
}

// ImportJSON parses an envelope and rehomes its cards into the target
// deck. Every card gets a fresh identity so that importing the same
// export twice never collides with existing data.
func (a *Adapter) ImportJSON(text string, deckID uuid.UUID) ([]domain.Card, error) {
	var envelope Envelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, fmt.Errorf("parsing import: %w", err)
	}
	if envelope.Cards == nil {
		return nil, fmt.Errorf("import envelope has no cards array")
	}

	cards := make([]domain.Card, len(envelope.Cards))
	for i, card := range envelope.Cards {
		card.ID = uuid.New()
		card.DeckID = deckID
		cards[i] = card
	}
	return cards, nil
}

func escapeField(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// parseCSVLine splits one comma-delimited line, honoring double-quoted
// fields with doubled inner quotes. It always returns at least one
// field.
func parseCSVLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		char := line[i]
		switch {
		case char == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case char == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(char)
		}
	}

	fields = append(fields, current.String())
	return fields
}
