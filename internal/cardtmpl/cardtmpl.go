// Package cardtmpl builds cards from templates with {{field}}
// placeholders. Templates are a creation-time convenience only; the
// produced cards carry no link back except the template id.
package cardtmpl

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memodeck/memodeck/internal/domain"
)

// ExtractFields returns the unique {{field}} names in a template, in
// first-appearance order.
func ExtractFields(template string) []string {
	var fields []string
	seen := map[string]struct{}{}

	for i := 0; i < len(template); {
		open := strings.Index(template[i:], "{{")
		if open < 0 {
			break
		}
		start := i + open + 2
		end := strings.Index(template[start:], "}}")
		if end < 0 {
			break
		}
		name := strings.TrimSpace(template[start : start+end])
		i = start + end + 2

		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		fields = append(fields, name)
	}
	return fields
}

// ValidateFieldValues checks that every declared field has a non-blank
// value. It reports all missing fields at once.
func ValidateFieldValues(tmpl domain.CardTemplate, values map[string]string) error {
	var missing []string
	for _, field := range tmpl.Fields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RenderCards builds one card per value row. All rows are validated
// before any card is created, so a bad row fails the whole batch up
// front rather than half way through.
func RenderCards(tmpl domain.CardTemplate, rows []map[string]string, deckID uuid.UUID, now time.Time) ([]domain.Card, error) {
	for i, row := range rows {
		if err := ValidateFieldValues(tmpl, row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	cards := make([]domain.Card, 0, len(rows))
	for _, row := range rows {
		card := domain.NewCard(deckID, render(tmpl.FrontTemplate, row), render(tmpl.BackTemplate, row), now)
		templateID := tmpl.ID
		card.TemplateID = &templateID
		cards = append(cards, card)
	}
	return cards, nil
}

func render(template string, values map[string]string) string {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		open := strings.Index(template[i:], "{{")
		if open < 0 {
			b.WriteString(template[i:])
			break
		}
		start := i + open + 2
		end := strings.Index(template[start:], "}}")
		if end < 0 {
			b.WriteString(template[i:])
			break
		}
		b.WriteString(template[i : i+open])
		name := strings.TrimSpace(template[start : start+end])
		if value, ok := values[name]; ok {
			b.WriteString(value)
		}
		i = start + end + 2
	}
	return b.String()
}
