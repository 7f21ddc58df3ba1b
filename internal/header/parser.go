package header

import (
	"errors"
	"fmt"

	"github.com/handiism/ultrastar-library/internal/model"
)

// Placeholder replaces missing textual fields.
const Placeholder = "UNKNOWN"

// ErrCorruptConfig is returned when a file has no header line at all.
var ErrCorruptConfig = errors.New("no header found (corrupt data?)")

// RequiredKeys lists the header keys every song is expected to carry, in
// the order they are checked.
var RequiredKeys = []string{
	model.KeyTitle,
	model.KeyArtist,
	model.KeyLanguage,
	model.KeyEdition,
	model.KeyGenre,
	model.KeyYear,
	model.KeyMP3,
	model.KeyCover,
	model.KeyVideo,
	model.KeyVideoGap,
	model.KeyBPM,
	model.KeyGap,
}

// repairable keys are replaced by Placeholder and written back to the file.
var repairable = map[string]bool{
	model.KeyGenre:    true,
	model.KeyEdition:  true,
	model.KeyLanguage: true,
	model.KeyArtist:   true,
	model.KeyTitle:    true,
}

// defaulted keys become "0" without touching the file.
var defaulted = map[string]bool{
	model.KeyVideoGap: true,
	model.KeyGap:      true,
}

// Fields maps lower-cased header keys to values.
type Fields map[string]string

// Parsed is the result of parsing a song header.
type Parsed struct {
	Fields Fields

	// Missing lists the textual fields that were absent and replaced by
	// Placeholder. The source file should be repaired with them.
	Missing []Field

	// Absent lists required keys that have no fallback and are left out of
	// Fields.
	Absent []string
}

// Parse decodes the header block of a song file and applies the missing
// field policy:
//   - title, artist, language, edition, genre: set to Placeholder and
//     reported in Missing
//   - videogap, gap: set to "0", not reported
//   - any other required key: left absent and reported in Absent
//
// sourceName is only used in error messages. A text without any header line
// returns an error wrapping ErrCorruptConfig.
func Parse(text, sourceName string) (*Parsed, error) {
	doc := Decode(text)
	if doc.HeaderLen() == 0 {
		return nil, fmt.Errorf("%s: %w", sourceName, ErrCorruptConfig)
	}

	parsed := &Parsed{Fields: Fields{}}
	for _, field := range doc.Header() {
		parsed.Fields[field.Key] = field.Value
	}

	for _, key := range RequiredKeys {
		if _, ok := parsed.Fields[key]; ok {
			continue
		}

		switch {
		case repairable[key]:
			parsed.Fields[key] = Placeholder
			parsed.Missing = append(parsed.Missing, Field{Key: key, Value: Placeholder})
		case defaulted[key]:
			parsed.Fields[key] = "0"
		default:
			parsed.Absent = append(parsed.Absent, key)
		}
	}

	return parsed, nil
}
