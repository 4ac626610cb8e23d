package anki

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
)

var (
	// ErrUnreadableArchive means the input is not a readable zip archive.
	ErrUnreadableArchive = errors.New("not a readable apkg archive")

	// ErrMissingCollection means the archive holds no collection database.
	ErrMissingCollection = errors.New("collection database not found in archive")
)

// The embedded database is stored under one of these entry names,
// depending on the Anki version that produced the package.
var collectionNames = []string{"collection.anki2", "collection.anki21"}

// ReadCollection locates the embedded collection database inside an apkg
// archive and returns its raw bytes.
func ReadCollection(data []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableArchive, err)
	}

	for _, name := range collectionNames {
		file, err := reader.Open(name)
		if err != nil {
			continue
		}
		blob, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", name, err)
		}
		return blob, nil
	}
	return nil, ErrMissingCollection
}

// HasMedia reports whether the archive carries a media manifest entry.
func HasMedia(data []byte) bool {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	file, err := reader.Open("media")
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// ValidateApkg is a cheap pre-flight check: the data must be a readable
// zip archive holding a collection database.
func ValidateApkg(data []byte) error {
	_, err := ReadCollection(data)
	return err
}
