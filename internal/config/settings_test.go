package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
ultrastar_dir: /opt/ultrastar
songs_dir: songs
playlist_dir: /var/playlists
verbose: 2
do_backup: false
`)

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/ultrastar/songs", settings.FullSongsDir())
	assert.Equal(t, "/var/playlists", settings.FullPlaylistDir())
	assert.Equal(t, 2, settings.Verbose)
	assert.False(t, settings.DoBackup)
	assert.Equal(t, "songs.db", settings.DBFile)
	assert.Equal(t, "iso-8859-15", settings.Encoding)
	assert.Equal(t, 4, settings.MaxConcurrentSongs)
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "ultrastar_dir": "/opt/ultrastar",
  "songs_dir": "songs",
  "playlist_dir": "playlists",
  "encoding": "utf-8",
  "read_from_db": true
}`)

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "utf-8", settings.Encoding)
	assert.True(t, settings.ReadFromDB)
	assert.True(t, settings.DoBackup)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing songs dir", `{"ultrastar_dir": "/u", "playlist_dir": "p"}`},
		{"missing playlist dir", `{"ultrastar_dir": "/u", "songs_dir": "s"}`},
		{"unknown encoding", `{"ultrastar_dir": "/u", "songs_dir": "s", "playlist_dir": "p", "encoding": "klingon"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.json", tt.content))
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSave_RoundTrip(t *testing.T) {
	for _, name := range []string{"out.json", "out.yml"} {
		t.Run(name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.UltrastarDir = "/u"
			settings.SongsDir = "s"
			settings.PlaylistDir = "p"
			settings.MaxConcurrentSongs = 8

			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, settings.Save(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, settings, loaded)
		})
	}
}
