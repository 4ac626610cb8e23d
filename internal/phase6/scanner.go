package phase6

import (
	"strconv"
	"strings"
)

// vocabEntry is one question/answer pair pulled out of an export.
type vocabEntry struct {
	question string
	answer   string
	phase    int
	date     string
}

// Synonym sets for the tag and column names seen across export variants.
var (
	questionNames = []string{"question", "front", "word", "term", "source"}
	answerNames   = []string{"answer", "back", "translation", "definition", "target"}
	phaseNames    = []string{"phase", "level", "box", "stage"}
	dateNames     = []string{"date", "laststudied", "studied"}
)

// scanner is a single-pass tolerant tag reader. It never backtracks:
// each call advances the position, so scanning is linear in the input
// even for adversarial documents.
type scanner struct {
	src     string
	lowered string
	pos     int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, lowered: strings.ToLower(src)}
}

// nextTag advances to the next tag and returns its lowercase name,
// prefixed with "/" for closing tags. Attributes are skipped.
func (s *scanner) nextTag() (string, bool) {
	for s.pos < len(s.src) {
		open := strings.IndexByte(s.src[s.pos:], '<')
		if open < 0 {
			s.pos = len(s.src)
			return "", false
		}
		start := s.pos + open + 1
		end := strings.IndexByte(s.src[start:], '>')
		if end < 0 {
			s.pos = len(s.src)
			return "", false
		}
		raw := s.lowered[start : start+end]
		s.pos = start + end + 1

		name := raw
		if cut := strings.IndexAny(name, " \t\r\n"); cut >= 0 {
			name = name[:cut]
		}
		name = strings.TrimSuffix(name, "/")
		if name == "" {
			continue
		}
		return name, true
	}
	return "", false
}

// textUntil captures the text between the current position and the
// closing tag of the given element, advancing past it. Returns false
// when the element is never closed.
func (s *scanner) textUntil(name string) (string, bool) {
	closing := "</" + name
	idx := strings.Index(s.lowered[s.pos:], closing)
	if idx < 0 {
		s.pos = len(s.src)
		return "", false
	}
	text := s.src[s.pos : s.pos+idx]
	end := strings.IndexByte(s.src[s.pos+idx:], '>')
	if end < 0 {
		s.pos = len(s.src)
	} else {
		s.pos = s.pos + idx + end + 1
	}
	return text, true
}

// parseXMLEntries walks <entry> and <card> elements and collects the
// recognized child fields. Entries without both a question and an answer
// are dropped.
func parseXMLEntries(content string) []vocabEntry {
	var entries []vocabEntry
	s := newScanner(content)

	for {
		tag, ok := s.nextTag()
		if !ok {
			break
		}
		if tag != "entry" && tag != "card" {
			continue
		}
		if entry, ok := parseXMLEntry(s, tag); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func parseXMLEntry(s *scanner, container string) (vocabEntry, bool) {
	entry := vocabEntry{phase: 1}

	for {
		tag, ok := s.nextTag()
		if !ok || tag == "/"+container {
			break
		}
		if strings.HasPrefix(tag, "/") {
			continue
		}

		switch {
		case matchesName(tag, questionNames):
			if text, ok := s.textUntil(tag); ok {
				entry.question = decodeXMLEntities(strings.TrimSpace(text))
			}
		case matchesName(tag, answerNames):
			if text, ok := s.textUntil(tag); ok {
				entry.answer = decodeXMLEntities(strings.TrimSpace(text))
			}
		case matchesName(tag, phaseNames):
			if text, ok := s.textUntil(tag); ok {
				if phase, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
					entry.phase = phase
				}
			}
		case matchesName(tag, dateNames):
			if text, ok := s.textUntil(tag); ok {
				entry.date = strings.TrimSpace(text)
			}
		}
	}

	return entry, entry.question != "" && entry.answer != ""
}

func matchesName(tag string, names []string) bool {
	for _, name := range names {
		if tag == name {
			return true
		}
	}
	return false
}

// decodeXMLEntities resolves named and numeric character references.
// Unknown references are kept verbatim.
func decodeXMLEntities(text string) string {
	if !strings.ContainsRune(text, '&') {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		if text[i] != '&' {
			b.WriteByte(text[i])
			i++
			continue
		}
		end := strings.IndexByte(text[i:], ';')
		if end < 1 || end > 10 {
			b.WriteByte(text[i])
			i++
			continue
		}
		ref := text[i+1 : i+end]
		switch {
		case ref == "lt":
			b.WriteByte('<')
		case ref == "gt":
			b.WriteByte('>')
		case ref == "quot":
			b.WriteByte('"')
		case ref == "apos":
			b.WriteByte('\'')
		case ref == "amp":
			b.WriteByte('&')
		case ref == "nbsp":
			b.WriteByte(' ')
		case strings.HasPrefix(ref, "#x") || strings.HasPrefix(ref, "#X"):
			if code, err := strconv.ParseInt(ref[2:], 16, 32); err == nil {
				b.WriteRune(rune(code))
			} else {
				b.WriteString(text[i : i+end+1])
			}
		case strings.HasPrefix(ref, "#"):
			if code, err := strconv.ParseInt(ref[1:], 10, 32); err == nil {
				b.WriteRune(rune(code))
			} else {
				b.WriteString(text[i : i+end+1])
			}
		default:
			b.WriteString(text[i : i+end+1])
		}
		i += end + 1
	}
	return b.String()
}
