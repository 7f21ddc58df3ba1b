package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ioutils "github.com/handiism/ultrastar-library/internal/io"
	"github.com/handiism/ultrastar-library/internal/model"
	"github.com/samber/lo"
)

// PlaylistExt is the extension of UltraStar playlist files.
const PlaylistExt = ".upl"

const (
	nameHeader  = "#Name:"
	songsHeader = "#Songs:"
	songSep     = " : "
)

// PlaylistManager reads and writes UltraStar playlists in a directory.
//
// A playlist file looks like:
//
//	#Name:Party
//	#Songs:
//	The Killers : Human
//	Queen : Bohemian Rhapsody
//
// Files are encoded with the library's text codec and backed up before they
// are overwritten for the first time.
type PlaylistManager struct {
	dir     string
	codec   *ioutils.TextCodec
	backups *ioutils.BackupManager
}

// NewPlaylistManager creates a PlaylistManager for dir.
func NewPlaylistManager(dir string, codec *ioutils.TextCodec, backups *ioutils.BackupManager) *PlaylistManager {
	return &PlaylistManager{
		dir:     dir,
		codec:   codec,
		backups: backups,
	}
}

// Path returns the file backing the playlist name.
func (m *PlaylistManager) Path(name string) string {
	return filepath.Join(m.dir, ioutils.SanitizeFileName(name)+PlaylistExt)
}

// Store writes songs as playlist name and returns the file path.
//
// An existing playlist with the same name is replaced.
func (m *PlaylistManager) Store(songs []model.PlaylistEntry, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("playlist name is empty")
	}

	if err := ioutils.EnsureDir(m.dir); err != nil {
		return "", err
	}

	path := m.Path(name)
	if err := m.backups.BackupIfMissing(path); err != nil {
		return "", err
	}

	if err := m.codec.WriteFile(path, Render(songs, name)); err != nil {
		return "", fmt.Errorf("write playlist %s: %w", path, err)
	}

	return path, nil
}

// Load reads the playlist called name.
func (m *PlaylistManager) Load(name string) (*model.PlaylistRecord, error) {
	return m.LoadFile(m.Path(name))
}

// LoadFile reads a playlist file.
//
// Song lines are split on the first " : ". Lines without that separator and
// unknown header lines are ignored. Without a #Name header the file stem is
// used as name.
func (m *PlaylistManager) LoadFile(path string) (*model.PlaylistRecord, error) {
	text, err := m.codec.ReadFile(path)
	if err != nil {
		return nil, err
	}

	record := Parse(text)
	record.Path = path
	if record.Name == "" {
		record.Name = strings.TrimSuffix(filepath.Base(path), PlaylistExt)
	}

	return record, nil
}

// List returns the sorted names of the playlists in the directory. When
// filter is not empty only names containing it (case-insensitive) are
// returned. A missing directory yields an empty list.
func (m *PlaylistManager) List(filter string) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	filter = strings.ToLower(filter)
	names := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (string, bool) {
		if entry.IsDir() || filepath.Ext(entry.Name()) != PlaylistExt {
			return "", false
		}
		name := strings.TrimSuffix(entry.Name(), PlaylistExt)
		return name, strings.Contains(strings.ToLower(name), filter)
	})
	slices.Sort(names)

	return names, nil
}

// Render returns the file content of a playlist.
func Render(songs []model.PlaylistEntry, name string) string {
	lines := make([]string, 0, len(songs)+2)
	lines = append(lines, nameHeader+name, songsHeader)
	for _, song := range songs {
		lines = append(lines, song.Artist+songSep+song.Title)
	}
	return strings.Join(lines, "\n")
}

// Parse decodes playlist file content. Path is left empty.
func Parse(text string) *model.PlaylistRecord {
	record := &model.PlaylistRecord{Songs: []model.PlaylistEntry{}}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, nameHeader):
			record.Name = strings.TrimSpace(strings.TrimPrefix(line, nameHeader))
		case strings.HasPrefix(line, "#"):
		default:
			artist, title, ok := strings.Cut(line, songSep)
			if !ok {
				continue
			}
			record.Songs = append(record.Songs, model.PlaylistEntry{Artist: artist, Title: title})
		}
	}

	return record
}
