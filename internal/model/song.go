package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Header keys understood by the library. Keys are always lower-case once
// decoded from a song file.
const (
	KeyTitle    = "title"
	KeyArtist   = "artist"
	KeyLanguage = "language"
	KeyEdition  = "edition"
	KeyGenre    = "genre"
	KeyYear     = "year"
	KeyMP3      = "mp3"
	KeyCover    = "cover"
	KeyVideo    = "video"
	KeyVideoGap = "videogap"
	KeyBPM      = "bpm"
	KeyGap      = "gap"

	// DuetSingerPrefix starts every singer slot key of a duet file,
	// e.g. "duetsinger1" or "duetsingerp2".
	DuetSingerPrefix = "duetsinger"
)

// SongEntry is a song folder discovered on disk.
//
// MultiConfigPath is empty when the folder has no duet file.
type SongEntry struct {
	BaseConfigPath  string
	MultiConfigPath string
	Directory       string
}

// HasMulti reports whether the folder carries a duet file.
func (e SongEntry) HasMulti() bool {
	return e.MultiConfigPath != ""
}

// SongRecord is the merged view of a song folder as stored in the library.
//
// A SongRecord is built by NewSongRecord from the decoded header of the base
// file, enriched with the duet singers and the probed audio duration.
// After construction it is only changed through the library's field update
// path, which rewrites the store row and the source files together.
type SongRecord struct {
	// ID is the store row id. Zero until the record is persisted.
	ID uint64

	Title    string
	Artist   string
	Language string
	Edition  string
	Genre    string
	Year     string

	// AudioFile, CoverFile and VideoFile are relative to Directory.
	AudioFile string
	CoverFile string
	VideoFile string

	VideoGap float64
	BPM      float64
	Gap      float64

	// Duration is the audio length in seconds, 0 when unknown.
	Duration float64

	// Directory is the song folder.
	Directory string

	// SourcePath is the base config file the record was read from.
	SourcePath string

	IsMulti bool

	// Singers maps a duet slot (the key suffix after "duetsinger") to the
	// singer name.
	Singers map[string]string
}

// NewSongRecord builds a record from a decoded header field map.
//
// Numeric fields accept both "." and "," as decimal separator. Values that
// cannot be parsed are stored as 0 and reported in the returned warnings;
// the record is still usable.
func NewSongRecord(fields map[string]string, directory, sourcePath string) (*SongRecord, []string) {
	var warnings []string

	number := func(key string) float64 {
		raw, ok := fields[key]
		if !ok {
			return 0
		}
		v, err := ParseNumber(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s value %q in %s, using 0", key, raw, sourcePath))
			return 0
		}
		return v
	}

	record := &SongRecord{
		Title:      fields[KeyTitle],
		Artist:     fields[KeyArtist],
		Language:   fields[KeyLanguage],
		Edition:    fields[KeyEdition],
		Genre:      fields[KeyGenre],
		Year:       fields[KeyYear],
		AudioFile:  fields[KeyMP3],
		CoverFile:  fields[KeyCover],
		VideoFile:  fields[KeyVideo],
		VideoGap:   number(KeyVideoGap),
		BPM:        number(KeyBPM),
		Gap:        number(KeyGap),
		Directory:  directory,
		SourcePath: sourcePath,
		Singers:    map[string]string{},
	}

	return record, warnings
}

// SortedSingerSlots returns the duet slots in lexical order.
func (r *SongRecord) SortedSingerSlots() []string {
	slots := lo.Keys(r.Singers)
	slices.Sort(slots)
	return slots
}

// String returns a short human readable description of the song.
func (r *SongRecord) String() string {
	str := `"` + r.Title + `"`
	if r.Artist != "" {
		str += ` by ` + r.Artist
	}
	return str
}

// ParseNumber parses a header number, accepting "," as decimal separator.
// An empty value parses as 0.
func ParseNumber(raw string) (float64, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// Row is a store row keyed by column name, as returned by raw queries.
type Row map[string]any
