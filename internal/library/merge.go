package library

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/handiism/ultrastar-library/internal/header"
	ioutils "github.com/handiism/ultrastar-library/internal/io"
	"github.com/handiism/ultrastar-library/internal/model"
)

// DurationProber measures audio files. audio.DurationProber implements it.
type DurationProber interface {
	Probe(path string) (float64, error)
}

// Merger combines the base and duet headers of a song folder into a record.
type Merger struct {
	prober DurationProber
}

// NewMerger creates a Merger. A nil prober leaves every duration at 0.
func NewMerger(prober DurationProber) *Merger {
	return &Merger{prober: prober}
}

// Merge builds the record of the folder dir from its base header and the
// optional duet header.
//
// Every duet key starting with "duetsinger" adds a singer slot; the song is
// a duet only when at least one slot exists. The duration is probed when
// the audio file named by the mp3 field exists. Probe failures and
// unparsable numbers only produce warnings.
func (m *Merger) Merge(base, multi header.Fields, dir, basePath string) (*model.SongRecord, []string) {
	record, warnings := model.NewSongRecord(base, dir, basePath)

	for key, value := range multi {
		if slot, ok := strings.CutPrefix(key, model.DuetSingerPrefix); ok {
			record.Singers[slot] = value
		}
	}
	record.IsMulti = len(record.Singers) > 0

	if m.prober == nil || record.AudioFile == "" {
		return record, warnings
	}

	audioPath := filepath.Join(dir, record.AudioFile)
	if !ioutils.Exists(audioPath) {
		return record, warnings
	}

	duration, err := m.prober.Probe(audioPath)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("could not read duration of %s: %v", audioPath, err))
		return record, warnings
	}
	record.Duration = duration

	return record, warnings
}
