package phase6

import "strings"

// columnLayout holds the detected column index for each field; -1 means
// the column is absent.
type columnLayout struct {
	question int
	answer   int
	phase    int
	date     int
}

// detectColumns inspects a header line and matches each column against
// the known keyword sets, case-insensitively. Undetected fields keep the
// conventional defaults: question first, answer second, phase third.
func detectColumns(header string) columnLayout {
	layout := columnLayout{question: 0, answer: 1, phase: 2, date: -1}

	for i, field := range parseDelimitedLine(strings.ToLower(header)) {
		field = strings.TrimSpace(field)
		switch {
		case containsAny(field, questionNames):
			layout.question = i
		case containsAny(field, answerNames):
			layout.answer = i
		case containsAny(field, phaseNames):
			layout.phase = i
		case containsAny(field, dateNames):
			layout.date = i
		}
	}
	return layout
}

func containsAny(field string, names []string) bool {
	for _, name := range names {
		if strings.Contains(field, name) {
			return true
		}
	}
	return false
}

// parseDelimitedLine splits one export line on comma, semicolon, or tab,
// honoring double-quoted fields with doubled inner quotes.
func parseDelimitedLine(line string) []string {
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
		case (char == ',' || char == ';' || char == '\t') && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(char)
		}
	}

	fields = append(fields, current.String())
	return fields
}

func fieldAt(fields []string, index int) string {
	if index < 0 || index >= len(fields) {
		return ""
	}
	return fields[index]
}
