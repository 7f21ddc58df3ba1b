package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	ioutils "github.com/handiism/ultrastar-library/internal/io"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when settings fail validation.
var ErrInvalid = errors.New("invalid settings")

// Settings holds all configuration options.
type Settings struct {
	// Library layout
	UltrastarDir string `json:"ultrastar_dir" yaml:"ultrastar_dir"`
	SongsDir     string `json:"songs_dir"     yaml:"songs_dir"`
	PlaylistDir  string `json:"playlist_dir"  yaml:"playlist_dir"`

	// Storage
	DBFile     string `json:"dbfile"       yaml:"dbfile"`
	Encoding   string `json:"encoding"     yaml:"encoding"`
	ReadFromDB bool   `json:"read_from_db" yaml:"read_from_db"`
	DoBackup   bool   `json:"do_backup"    yaml:"do_backup"`

	// Processing
	Verbose            int `json:"verbose"              yaml:"verbose"`
	MaxConcurrentSongs int `json:"max_concurrent_songs" yaml:"max_concurrent_songs"`

	// Web
	ListenAddr         string `json:"listen_addr"          yaml:"listen_addr"`
	CoverThumbnailSize int    `json:"cover_thumbnail_size" yaml:"cover_thumbnail_size"`
}

// DefaultSettings returns settings with default values. The library
// directories have no default.
func DefaultSettings() *Settings {
	return &Settings{
		DBFile:             "songs.db",
		Encoding:           ioutils.DefaultEncoding,
		ReadFromDB:         false,
		DoBackup:           true,
		Verbose:            0,
		MaxConcurrentSongs: 4,
		ListenAddr:         ":8080",
		CoverThumbnailSize: 300,
	}
}

// Load reads settings from a JSON or YAML file, chosen by extension
// (.yml and .yaml are YAML, anything else JSON). Values missing from the
// file keep their defaults. The result is validated.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal config file %q: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to path, as YAML or JSON depending on the extension.
func (s *Settings) Save(path string) error {
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks that the library directories are set and the encoding
// is known.
func (s *Settings) Validate() error {
	switch {
	case s.UltrastarDir == "":
		return fmt.Errorf("%w: ultrastar_dir is empty", ErrInvalid)
	case s.SongsDir == "":
		return fmt.Errorf("%w: songs_dir is empty", ErrInvalid)
	case s.PlaylistDir == "":
		return fmt.Errorf("%w: playlist_dir is empty", ErrInvalid)
	case s.DBFile == "":
		return fmt.Errorf("%w: dbfile is empty", ErrInvalid)
	}

	if _, err := ioutils.NewTextCodec(s.Encoding); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if s.MaxConcurrentSongs < 1 {
		s.MaxConcurrentSongs = 1
	}

	return nil
}

// FullSongsDir returns the songs directory. A relative songs_dir is
// resolved against ultrastar_dir.
func (s *Settings) FullSongsDir() string {
	return s.resolve(s.SongsDir)
}

// FullPlaylistDir returns the playlist directory. A relative playlist_dir
// is resolved against ultrastar_dir.
func (s *Settings) FullPlaylistDir() string {
	return s.resolve(s.PlaylistDir)
}

func (s *Settings) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(s.UltrastarDir, dir)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}
