package domain

// ImportResult is the uniform outcome of every import adapter.
//
// Success is false only for structural failures (unreadable archive,
// missing collection, unparsable envelope); row-level problems are
// reported in Warnings while the rest of the batch is kept.
type ImportResult struct {
	Success  bool     `json:"success"`
	Decks    []Deck   `json:"decks"`
	Cards    []Card   `json:"cards"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewImportResult returns an empty, not-yet-successful result.
func NewImportResult() ImportResult {
	return ImportResult{
		Decks:    []Deck{},
		Cards:    []Card{},
		Errors:   []string{},
		Warnings: []string{},
	}
}
