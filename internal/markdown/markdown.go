// Package markdown imports flashcards written as plain text notes. A
// card is a block of Q:/A: lines, optionally followed by C: context;
// blocks are separated by a new Q: line or a "---" rule. Duplicate
// cards within one import are collapsed by content fingerprint.
package markdown

import (
	"bufio"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/memodeck/memodeck/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
)

// DefaultDeckName is used when the caller does not name the import.
const DefaultDeckName = "Markdown Import"

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
)

// note is one parsed Q/A block before conversion.
type note struct {
	question string
	answer   string
	context  string
}

// Importer converts Q:/A: text notes into the domain model.
type Importer struct {
	now func() time.Time
}

// NewImporter creates a markdown importer.
func NewImporter() *Importer {
	return &Importer{now: time.Now}
}

// ImportFromText parses note text into new cards. Blocks with a
// question but no answer are dropped with a warning; duplicate blocks
// are collapsed.
func (im *Importer) ImportFromText(content, deckName string) domain.ImportResult {
	result := domain.NewImportResult()
	now := im.now()

	notes := parseNotes(content)
	if len(notes) == 0 {
		result.Errors = append(result.Errors, "no cards found in text")
		return result
	}

	if strings.TrimSpace(deckName) == "" {
		deckName = DefaultDeckName
	}
	deck := domain.NewDeck(deckName, "Imported from markdown notes", now)
	result.Decks = append(result.Decks, deck)

	seen := map[string]struct{}{}
	for i, n := range notes {
		if n.answer == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("skipping card %d: no answer for %q", i+1, n.question))
			continue
		}
		print := fingerprint(n)
		if _, dup := seen[print]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("skipping card %d: duplicate of an earlier card", i+1))
			continue
		}
		seen[print] = struct{}{}

		back := n.answer
		if n.context != "" {
			back += "\n\n" + n.context
		}
		result.Cards = append(result.Cards, domain.NewCard(deck.ID, n.question, back, now))
	}

	result.Success = len(result.Cards) > 0
	slog.Info("markdown import finished", "cards", len(result.Cards), "warnings", len(result.Warnings))
	return result
}

// parseNotes runs the line state machine over the text. A new Q: line
// or a "---" separator finishes the current block.
func parseNotes(content string) []note {
	scanner := bufio.NewScanner(strings.NewReader(content))
	var notes []note
	var current note
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		text := strings.Join(block, "\n")
		switch currentState {
		case readingQuestion:
			current.question = text
		case readingAnswer:
			current.answer = text
		case readingContext:
			current.context = text
		}
		block = nil
	}

	finishNote := func() {
		flushBlock()
		if current.question != "" {
			notes = append(notes, current)
		}
		current = note{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "---" {
			finishNote()
			continue
		}

		switch {
		case strings.HasPrefix(line, questionPrefix):
			if currentState != seeking {
				finishNote()
			} else {
				flushBlock()
			}
			currentState = readingQuestion
			block = append(block, trimPrefix(line, questionPrefix))
		case strings.HasPrefix(line, answerPrefix):
			flushBlock()
			currentState = readingAnswer
			block = append(block, trimPrefix(line, answerPrefix))
		case strings.HasPrefix(line, contextPrefix):
			flushBlock()
			currentState = readingContext
			block = append(block, trimPrefix(line, contextPrefix))
		default:
			if currentState != seeking {
				block = append(block, line)
			}
		}
	}

	finishNote()
	return notes
}

func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	return strings.TrimPrefix(content, " ")
}

// fingerprint hashes the normalized content of a note. Whitespace,
// case, and line-ending differences do not produce distinct prints.
func fingerprint(n note) string {
	normalize := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}
	joined := strings.Join([]string{normalize(n.question), normalize(n.answer), normalize(n.context)}, "\n")
	return fmt.Sprintf("%x", sha256.Sum256([]byte(joined)))
}
