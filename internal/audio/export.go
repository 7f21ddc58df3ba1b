package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/handiism/ultrastar-library/internal/model"
)

// ExportFormat represents a playlist format understood by media players.
//
// UltraStar playlists only reference songs by artist and title. Exports
// point at the audio files so a playlist can be played outside the game.
type ExportFormat int

const (
	// FormatM3U creates extended .m3u files (most compatible).
	FormatM3U ExportFormat = iota

	// FormatPLS creates .pls files (Winamp/SHOUTcast format).
	FormatPLS
)

// ParseExportFormat maps "m3u" or "pls" to an ExportFormat.
func ParseExportFormat(name string) (ExportFormat, error) {
	switch strings.ToLower(name) {
	case "", "m3u":
		return FormatM3U, nil
	case "pls":
		return FormatPLS, nil
	default:
		return 0, fmt.Errorf("unknown playlist format %q", name)
	}
}

// Ext returns the file extension of the format.
func (f ExportFormat) Ext() string {
	if f == FormatPLS {
		return ".pls"
	}
	return ".m3u"
}

// Export renders songs in format. Songs without audio file are skipped.
//
// Example:
//
//	content := audio.Export(audio.FormatM3U, songs)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:245,The Killers - Human
//	// /songs/The Killers - Human/The Killers - Human.mp3
func Export(format ExportFormat, songs []*model.SongRecord) string {
	switch format {
	case FormatPLS:
		return exportPLS(songs)
	default:
		return exportM3U(songs)
	}
}

func exportM3U(songs []*model.SongRecord) string {
	var sb strings.Builder

	sb.WriteString("#EXTM3U\n")
	for _, song := range songs {
		if song.AudioFile == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", int(song.Duration), song.Artist, song.Title))
		sb.WriteString(filepath.Join(song.Directory, song.AudioFile) + "\n")
	}

	return sb.String()
}

// exportPLS generates an INI-style PLS playlist:
//
//	[playlist]
//	File1=/songs/A - T/A - T.mp3
//	Title1=A - T
//	Length1=180
//	NumberOfEntries=1
//	Version=2
func exportPLS(songs []*model.SongRecord) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	idx := 0
	for _, song := range songs {
		if song.AudioFile == "" {
			continue
		}
		idx++
		sb.WriteString(fmt.Sprintf("File%d=%s\n", idx, filepath.Join(song.Directory, song.AudioFile)))
		sb.WriteString(fmt.Sprintf("Title%d=%s - %s\n", idx, song.Artist, song.Title))
		sb.WriteString(fmt.Sprintf("Length%d=%d\n", idx, int(song.Duration)))
	}

	sb.WriteString(fmt.Sprintf("NumberOfEntries=%d\n", idx))
	sb.WriteString("Version=2\n")

	return sb.String()
}
