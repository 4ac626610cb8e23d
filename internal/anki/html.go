package anki

import (
	"regexp"
	"strings"
)

// Anki fields embed HTML. The importer keeps the text and drops the
// markup: decode the common entities first, then strip tags repeatedly
// until nothing changes, so nested or malformed markup cannot survive a
// single pass. Break and paragraph tags become newlines.
var (
	entityDecoder = strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&amp;", "&",
	)

	breakTags     = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockOpenTags = regexp.MustCompile(`(?i)<(?:div|p)\b[^>]*>`)
	blockEndTags  = regexp.MustCompile(`(?i)</(?:div|p)>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
)

// CleanHTML converts an Anki HTML field into plain text.
func CleanHTML(html string) string {
	text := entityDecoder.Replace(html)

	for {
		previous := text
		text = breakTags.ReplaceAllString(text, "\n")
		text = blockOpenTags.ReplaceAllString(text, "\n")
		text = blockEndTags.ReplaceAllString(text, "")
		text = anyTag.ReplaceAllString(text, "")
		if text == previous {
			break
		}
	}

	return strings.TrimSpace(text)
}
