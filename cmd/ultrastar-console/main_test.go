package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/handiism/ultrastar-library/internal/config"
	"github.com/handiism/ultrastar-library/internal/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	settings := config.DefaultSettings()
	settings.UltrastarDir = root
	settings.SongsDir = "songs"
	settings.PlaylistDir = "playlists"
	settings.DBFile = filepath.Join(root, "songs.db")
	require.NoError(t, os.MkdirAll(settings.FullSongsDir(), 0755))

	path := filepath.Join(root, "config.yaml")
	require.NoError(t, settings.Save(path))
	return path
}

func TestRun_ClosesEngineWhenConsoleFails(t *testing.T) {
	failure := errors.New("no terminal")

	var opened *library.Engine
	err := run(writeConfig(t), func(engine *library.Engine, _ <-chan library.Event, _ bool) error {
		opened = engine
		return failure
	})
	require.ErrorIs(t, err, failure)
	require.NotNil(t, opened)

	_, err = opened.Query(context.Background(), "select 1")
	assert.Error(t, err, "engine still open after run returned")
}

func TestRun_MissingConfig(t *testing.T) {
	called := false
	err := run(filepath.Join(t.TempDir(), "missing.yaml"), func(*library.Engine, <-chan library.Event, bool) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}
