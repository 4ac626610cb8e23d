package phase6

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memodeck/memodeck/internal/domain"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestImporter() *Importer {
	return &Importer{now: func() time.Time { return testNow }}
}

func TestImportFromXML(t *testing.T) {
	content := `<export>
		<entry>
			<question>Haus</question>
			<answer>house</answer>
			<phase>3</phase>
		</entry>
		<entry>
			<question>Baum</question>
			<answer>tree</answer>
			<phase>6</phase>
		</entry>
	</export>`

	result := newTestImporter().ImportFromXML(content, "German")
	require.True(t, result.Success)
	require.Len(t, result.Decks, 1)
	require.Len(t, result.Cards, 2)

	assert.Equal(t, "German", result.Decks[0].Name)

	phase3 := result.Cards[0]
	assert.Equal(t, "Haus", phase3.Front)
	assert.Equal(t, "house", phase3.Back)
	assert.Equal(t, 4, phase3.ScheduledDays)
	assert.Equal(t, 15.0, phase3.Stability)
	assert.Equal(t, 4.0, phase3.Difficulty)
	assert.Equal(t, domain.StateReview, phase3.State)
	assert.Equal(t, 2, phase3.Reps)
	assert.Equal(t, testNow.AddDate(0, 0, 4), phase3.Due)

	phase6 := result.Cards[1]
	assert.Equal(t, 30, phase6.ScheduledDays)
	assert.Equal(t, 30.0, phase6.Stability)
	assert.Equal(t, 1.0, phase6.Difficulty)
	assert.Equal(t, domain.StateReview, phase6.State)
	assert.Equal(t, 5, phase6.Reps)
}

func TestImportFromXMLSynonymTags(t *testing.T) {
	content := `<cards>
		<card>
			<word>chien</word>
			<translation>dog</translation>
			<level>2</level>
		</card>
	</cards>`

	result := newTestImporter().ImportFromXML(content, "")
	require.True(t, result.Success)
	require.Len(t, result.Cards, 1)

	card := result.Cards[0]
	assert.Equal(t, "chien", card.Front)
	assert.Equal(t, "dog", card.Back)
	assert.Equal(t, 2, card.ScheduledDays)
	assert.Equal(t, domain.StateLearning, card.State)
	assert.Equal(t, DefaultDeckName, result.Decks[0].Name)
}

func TestImportFromXMLDefaultPhase(t *testing.T) {
	content := `<entry><question>q</question><answer>a</answer></entry>`

	result := newTestImporter().ImportFromXML(content, "d")
	require.True(t, result.Success)

	card := result.Cards[0]
	assert.Equal(t, 1, card.ScheduledDays)
	assert.Equal(t, 5.0, card.Stability)
	assert.Equal(t, 6.0, card.Difficulty)
	assert.Equal(t, domain.StateLearning, card.State)
	assert.Equal(t, 0, card.Reps)
	assert.Nil(t, card.LastReview)
}

func TestImportFromXMLPhaseClamped(t *testing.T) {
	content := `<export>
		<entry><question>low</question><answer>a</answer><phase>0</phase></entry>
		<entry><question>high</question><answer>b</answer><phase>7</phase></entry>
	</export>`

	result := newTestImporter().ImportFromXML(content, "d")
	require.Len(t, result.Cards, 2)

	assert.Equal(t, 1, result.Cards[0].ScheduledDays)
	assert.Equal(t, 30, result.Cards[1].ScheduledDays)
	assert.Equal(t, 1.0, result.Cards[1].Difficulty)
}

func TestImportFromXMLEntities(t *testing.T) {
	content := `<entry><question>Tom &amp; Jerry</question><answer>&lt;cartoon&gt;</answer></entry>`

	result := newTestImporter().ImportFromXML(content, "d")
	require.True(t, result.Success)
	assert.Equal(t, "Tom & Jerry", result.Cards[0].Front)
	assert.Equal(t, "<cartoon>", result.Cards[0].Back)
}

func TestImportFromXMLNoEntries(t *testing.T) {
	result := newTestImporter().ImportFromXML("<export></export>", "d")
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no vocabulary entries")
	assert.Empty(t, result.Decks)
}

func TestImportFromXMLIncompleteEntryDropped(t *testing.T) {
	content := `<export>
		<entry><question>only question</question></entry>
		<entry><question>q</question><answer>a</answer></entry>
	</export>`

	result := newTestImporter().ImportFromXML(content, "d")
	require.True(t, result.Success)
	assert.Len(t, result.Cards, 1)
}

func TestImportFromCSV(t *testing.T) {
	content := "Question,Answer,Phase\nHaus,house,3\nBaum,tree,6\n"

	result := newTestImporter().ImportFromCSV(content, "German")
	require.True(t, result.Success)
	require.Len(t, result.Cards, 2)

	assert.Equal(t, "Haus", result.Cards[0].Front)
	assert.Equal(t, 4, result.Cards[0].ScheduledDays)
	assert.Equal(t, 30, result.Cards[1].ScheduledDays)
}

func TestImportFromCSVHeaderDetection(t *testing.T) {
	content := "Level;Translation;Word\n4;dog;chien\n"

	result := newTestImporter().ImportFromCSV(content, "d")
	require.True(t, result.Success)
	require.Len(t, result.Cards, 1)

	card := result.Cards[0]
	assert.Equal(t, "chien", card.Front)
	assert.Equal(t, "dog", card.Back)
	assert.Equal(t, 7, card.ScheduledDays)
}

func TestImportFromCSVQuotedFields(t *testing.T) {
	content := "question,answer,phase\n\"hello, world\",\"say \"\"hi\"\"\",2\n"

	result := newTestImporter().ImportFromCSV(content, "d")
	require.True(t, result.Success)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, "hello, world", result.Cards[0].Front)
	assert.Equal(t, `say "hi"`, result.Cards[0].Back)
}

func TestImportFromCSVTooShort(t *testing.T) {
	result := newTestImporter().ImportFromCSV("question,answer,phase\n", "d")
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "header and one entry")
}

func TestImportFromCSVRowIsolation(t *testing.T) {
	content := "question,answer,phase\n,missing question,1\nq,a,1\n"

	result := newTestImporter().ImportFromCSV(content, "d")
	require.True(t, result.Success)
	assert.Len(t, result.Cards, 1)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "row 2")
}

func TestImportStudyDate(t *testing.T) {
	content := `<entry>
		<question>q</question>
		<answer>a</answer>
		<phase>3</phase>
		<date>2024-01-10</date>
	</entry>`

	result := newTestImporter().ImportFromXML(content, "d")
	require.True(t, result.Success)

	card := result.Cards[0]
	require.NotNil(t, card.LastReview)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), *card.LastReview)
}

func TestImportStudyDateIgnoredWithoutHistory(t *testing.T) {
	content := `<entry>
		<question>q</question>
		<answer>a</answer>
		<phase>1</phase>
		<date>2024-01-10</date>
	</entry>`

	result := newTestImporter().ImportFromXML(content, "d")
	require.True(t, result.Success)
	assert.Nil(t, result.Cards[0].LastReview)
}

func TestImportStudyDateUnparsable(t *testing.T) {
	content := `<entry>
		<question>q</question>
		<answer>a</answer>
		<phase>3</phase>
		<date>last tuesday</date>
	</entry>`

	result := newTestImporter().ImportFromXML(content, "d")
	require.True(t, result.Success)
	assert.Nil(t, result.Cards[0].LastReview)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "study date")
}

func TestParseDelimitedLineSeparators(t *testing.T) {
	testCases := []struct {
		name string
		line string
		want []string
	}{
		{"comma", "a,b,c", []string{"a", "b", "c"}},
		{"semicolon", "a;b;c", []string{"a", "b", "c"}},
		{"tab", "a\tb\tc", []string{"a", "b", "c"}},
		{"quoted separator", `"a,b",c`, []string{"a,b", "c"}},
		{"empty fields", "a,,c", []string{"a", "", "c"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseDelimitedLine(tc.line))
		})
	}
}
