package anki

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/memodeck/memodeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ankiRow struct {
	nid, cid, did          int64
	flds                   string
	ivl, factor            int64
	reps, lapses, due, typ int64
}

// buildCollection creates a minimal Anki collection database on disk and
// returns its raw bytes.
func buildCollection(t *testing.T, decksJSON string, rows []ankiRow) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "collection.anki2")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE col (decks TEXT);
		CREATE TABLE notes (id INTEGER PRIMARY KEY, flds TEXT, tags TEXT);
		CREATE TABLE cards (
			id INTEGER PRIMARY KEY, nid INTEGER, did INTEGER,
			ivl INTEGER, factor INTEGER, reps INTEGER,
			lapses INTEGER, due INTEGER, type INTEGER
		);
	`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO col (decks) VALUES (?)`, decksJSON)
	require.NoError(t, err)

	seenNotes := map[int64]bool{}
	for _, row := range rows {
		if !seenNotes[row.nid] {
			_, err = db.Exec(`INSERT INTO notes (id, flds, tags) VALUES (?, ?, ?)`, row.nid, row.flds, "")
			require.NoError(t, err)
			seenNotes[row.nid] = true
		}
		_, err = db.Exec(
			`INSERT INTO cards (id, nid, did, ivl, factor, reps, lapses, due, type)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.cid, row.nid, row.did, row.ivl, row.factor, row.reps, row.lapses, row.due, row.typ,
		)
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	return blob
}

// buildApkg zips a collection blob under the given entry name.
func buildApkg(t *testing.T, entryName string, blob []byte, withMedia bool) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	entry, err := writer.Create(entryName)
	require.NoError(t, err)
	_, err = entry.Write(blob)
	require.NoError(t, err)

	if withMedia {
		media, err := writer.Create("media")
		require.NoError(t, err)
		_, err = media.Write([]byte("{}"))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func newTestImporter(t *testing.T, now time.Time) *Importer {
	t.Helper()
	backend, err := DefaultBackend()
	require.NoError(t, err)
	importer := NewImporter(backend)
	importer.now = func() time.Time { return now }
	return importer
}

const testDecksJSON = `{
	"1": {"id": 1, "name": "Default"},
	"1623000000000": {"id": 1623000000000, "name": "Spanish"}
}`

func TestImportFromApkg(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	rows := []ankiRow{
		{nid: 1, cid: 10, did: 1623000000000, flds: "hola\x1fhello", typ: 0},
		{nid: 1, cid: 11, did: 1623000000000, flds: "hola\x1fhello", ivl: 12, factor: 250, reps: 4, lapses: 1, due: now.Unix()/86400 + 5, typ: 2},
	}
	apkg := buildApkg(t, "collection.anki2", buildCollection(t, testDecksJSON, rows), false)

	result := newTestImporter(t, now).ImportFromApkg(apkg)

	require.True(t, result.Success)
	require.Empty(t, result.Errors)
	require.Len(t, result.Decks, 1)
	assert.Equal(t, "Spanish", result.Decks[0].Name)

	require.Len(t, result.Cards, 2)
	newCard, reviewCard := result.Cards[0], result.Cards[1]
	if newCard.State != domain.StateNew {
		newCard, reviewCard = reviewCard, newCard
	}

	assert.Equal(t, domain.StateNew, newCard.State)
	assert.Equal(t, "hola", newCard.Front)
	assert.Equal(t, "hello", newCard.Back)
	assert.Equal(t, now, newCard.Due)
	assert.Equal(t, 10.0, newCard.Difficulty) // ease unset clamps to the hard end

	assert.Equal(t, domain.StateReview, reviewCard.State)
	assert.Equal(t, 2.0, reviewCard.Difficulty) // (300-250)/25
	assert.Equal(t, 12.0, reviewCard.Stability)
	assert.Equal(t, 12, reviewCard.ScheduledDays)
	assert.Equal(t, 4, reviewCard.Reps)
	assert.Equal(t, 1, reviewCard.Lapses)
	assert.Equal(t, now.AddDate(0, 0, 5), reviewCard.Due)
	assert.Equal(t, result.Decks[0].ID, reviewCard.DeckID)
}

func TestImportFromApkgCollectionFallbackName(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	rows := []ankiRow{{nid: 1, cid: 10, did: 1, flds: "front\x1fback", typ: 0}}
	apkg := buildApkg(t, "collection.anki21", buildCollection(t, `{"1": {"id": 1, "name": "Default"}}`, rows), false)

	result := newTestImporter(t, now).ImportFromApkg(apkg)

	require.True(t, result.Success)
	// Only the Default deck existed, so a synthetic deck takes its place.
	require.Len(t, result.Decks, 1)
	assert.Equal(t, "Imported from Anki", result.Decks[0].Name)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, result.Decks[0].ID, result.Cards[0].DeckID)
}

func TestImportFromApkgMissingCollection(t *testing.T) {
	apkg := buildApkg(t, "something-else.txt", []byte("nope"), false)

	result := newTestImporter(t, time.Now()).ImportFromApkg(apkg)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, result.Cards)
}

func TestImportFromApkgUnreadableArchive(t *testing.T) {
	result := newTestImporter(t, time.Now()).ImportFromApkg([]byte("this is not a zip"))

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, result.Cards)
}

func TestImportFromApkgRowIsolation(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	rows := []ankiRow{
		{nid: 1, cid: 10, did: 5, flds: "\x1fback only", typ: 0}, // empty front
		{nid: 2, cid: 11, did: 5, flds: "good front\x1fback", typ: 0},
	}
	apkg := buildApkg(t, "collection.anki2", buildCollection(t, `{"5": {"id": 5, "name": "Mixed"}}`, rows), false)

	result := newTestImporter(t, now).ImportFromApkg(apkg)

	require.True(t, result.Success)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, "good front", result.Cards[0].Front)
	assert.NotEmpty(t, result.Warnings)
}

func TestImportFromApkgMediaWarning(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	rows := []ankiRow{{nid: 1, cid: 10, did: 5, flds: "a\x1fb", typ: 0}}
	apkg := buildApkg(t, "collection.anki2", buildCollection(t, `{"5": {"id": 5, "name": "Media"}}`, rows), true)

	result := newTestImporter(t, now).ImportFromApkg(apkg)

	require.True(t, result.Success)
	assert.Contains(t, result.Warnings[len(result.Warnings)-1], "media")
}

func TestImportFromApkgUnmappedDeckFallsBack(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	rows := []ankiRow{{nid: 1, cid: 10, did: 999, flds: "a\x1fb", typ: 0}}
	apkg := buildApkg(t, "collection.anki2", buildCollection(t, `{"5": {"id": 5, "name": "Known"}}`, rows), false)

	result := newTestImporter(t, now).ImportFromApkg(apkg)

	require.True(t, result.Success)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, result.Decks[0].ID, result.Cards[0].DeckID)
}

func TestValidateApkg(t *testing.T) {
	blob := buildCollection(t, `{}`, nil)

	assert.NoError(t, ValidateApkg(buildApkg(t, "collection.anki2", blob, false)))
	assert.ErrorIs(t, ValidateApkg(buildApkg(t, "other", blob, false)), ErrMissingCollection)
	assert.ErrorIs(t, ValidateApkg([]byte("junk")), ErrUnreadableArchive)
}

func TestLearningDueUsesEpochSeconds(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	dueAt := now.Add(3 * time.Hour)
	rows := []ankiRow{{nid: 1, cid: 10, did: 5, flds: "a\x1fb", ivl: 1, factor: 250, reps: 1, due: dueAt.Unix(), typ: 1}}
	apkg := buildApkg(t, "collection.anki2", buildCollection(t, `{"5": {"id": 5, "name": "Learning"}}`, rows), false)

	result := newTestImporter(t, now).ImportFromApkg(apkg)

	require.True(t, result.Success)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, domain.StateLearning, result.Cards[0].State)
	assert.Equal(t, dueAt.Unix(), result.Cards[0].Due.Unix())
}
