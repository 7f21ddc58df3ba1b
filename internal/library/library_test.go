package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/handiism/ultrastar-library/internal/audio"
	"github.com/handiism/ultrastar-library/internal/config"
	"github.com/handiism/ultrastar-library/internal/header"
	ioutils "github.com/handiism/ultrastar-library/internal/io"
	"github.com/handiism/ultrastar-library/internal/model"
	"github.com/handiism/ultrastar-library/internal/store"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func songText(title, artist string, extra ...string) string {
	lines := []string{
		"#TITLE:" + title,
		"#ARTIST:" + artist,
		"#LANGUAGE:English",
		"#EDITION:Test",
		"#GENRE:Pop",
		"#YEAR:2001",
		"#MP3:song.mp3",
		"#COVER:cover.jpg",
		"#VIDEO:video.mp4",
		"#VIDEOGAP:0",
		"#BPM:300,5",
		"#GAP:1000",
	}
	lines = append(lines, extra...)
	lines = append(lines, ": 0 4 60 la", "E", "")
	return strings.Join(lines, "\n")
}

type testLibrary struct {
	settings *config.Settings
	engine   *Engine
	events   []Event
}

func (l *testLibrary) songDir(name string) string {
	return filepath.Join(l.settings.FullSongsDir(), name)
}

func (l *testLibrary) addSong(t *testing.T, name, base, multi string) {
	t.Helper()
	dir := l.songDir(name)
	require.NoError(t, os.MkdirAll(dir, 0755))

	basePath, multiPath := ConfigPaths(dir)
	if base != "" {
		require.NoError(t, os.WriteFile(basePath, []byte(base), 0644))
	}
	if multi != "" {
		require.NoError(t, os.WriteFile(multiPath, []byte(multi), 0644))
	}
}

func (l *testLibrary) warnings() []Event {
	return lo.Filter(l.events, func(e Event, _ int) bool { return e.Level == LevelWarning })
}

func newTestLibrary(t *testing.T) *testLibrary {
	t.Helper()
	root := t.TempDir()

	settings := config.DefaultSettings()
	settings.UltrastarDir = root
	settings.SongsDir = "songs"
	settings.PlaylistDir = "playlists"
	settings.DBFile = filepath.Join(root, "songs.db")
	require.NoError(t, settings.Validate())
	require.NoError(t, os.MkdirAll(settings.FullSongsDir(), 0755))

	lib := &testLibrary{settings: settings}
	engine, err := NewEngine(settings, func(e Event) { lib.events = append(lib.events, e) })
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	lib.engine = engine

	return lib
}

func songID(t *testing.T, lib *testLibrary, title string) int64 {
	t.Helper()
	rows, err := lib.engine.Query(context.Background(), fmt.Sprintf("select id from songs where title = '%s'", title))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]["id"].(int64)
}

func TestConfigPaths(t *testing.T) {
	base, multi := ConfigPaths("/songs/Queen - Bohemian Rhapsody")
	assert.Equal(t, "/songs/Queen - Bohemian Rhapsody/Queen - Bohemian Rhapsody.txt", base)
	assert.Equal(t, "/songs/Queen - Bohemian Rhapsody/Queen - Bohemian Rhapsody [MULTI].txt", multi)
}

func TestScanner_Scan(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "Solo", songText("Solo", "A"), "")
	lib.addSong(t, "Duet", songText("Duet", "B"), songText("Duet", "B"))
	lib.addSong(t, "Empty", "", "")
	require.NoError(t, os.WriteFile(filepath.Join(lib.settings.FullSongsDir(), "readme.txt"), []byte("x"), 0644))

	var skipped []string
	scanner := &Scanner{OnSkip: func(dir string) { skipped = append(skipped, filepath.Base(dir)) }}

	seq, err := scanner.Scan(lib.settings.FullSongsDir())
	require.NoError(t, err)

	entries := slices.Collect(seq)
	require.Len(t, entries, 2)
	byDir := lo.KeyBy(entries, func(e model.SongEntry) string { return filepath.Base(e.Directory) })
	assert.True(t, byDir["Duet"].HasMulti())
	assert.False(t, byDir["Solo"].HasMulti())
	assert.Equal(t, []string{"Empty"}, skipped)
}

func TestScanner_MissingRoot(t *testing.T) {
	_, err := (&Scanner{}).Scan(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

type stubProber struct {
	seconds float64
	err     error
	calls   int
}

func (p *stubProber) Probe(string) (float64, error) {
	p.calls++
	return p.seconds, p.err
}

func TestMerger_Singers(t *testing.T) {
	base := header.Fields{"title": "T", "artist": "A"}

	tests := []struct {
		name        string
		multi       header.Fields
		wantMulti   bool
		wantSingers map[string]string
	}{
		{
			name:        "two singers",
			multi:       header.Fields{"duetsinger1": "Alice", "duetsinger2": "Bob", "title": "T"},
			wantMulti:   true,
			wantSingers: map[string]string{"1": "Alice", "2": "Bob"},
		},
		{
			name:        "duet file without singers",
			multi:       header.Fields{"title": "T"},
			wantMulti:   false,
			wantSingers: map[string]string{},
		},
		{
			name:        "no duet file",
			multi:       nil,
			wantMulti:   false,
			wantSingers: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, warnings := NewMerger(nil).Merge(base, tt.multi, "/songs/T", "/songs/T/T.txt")
			assert.Empty(t, warnings)
			assert.Equal(t, tt.wantMulti, record.IsMulti)
			assert.Equal(t, tt.wantSingers, record.Singers)
			assert.Equal(t, "/songs/T/T.txt", record.SourcePath)
		})
	}
}

func TestMerger_Duration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("x"), 0644))

	t.Run("probed", func(t *testing.T) {
		prober := &stubProber{seconds: 201.5}
		record, warnings := NewMerger(prober).Merge(header.Fields{"mp3": "song.mp3"}, nil, dir, "")
		assert.Empty(t, warnings)
		assert.Equal(t, 201.5, record.Duration)
	})

	t.Run("probe failure", func(t *testing.T) {
		prober := &stubProber{err: audio.ErrUnsupportedFormat}
		record, warnings := NewMerger(prober).Merge(header.Fields{"mp3": "song.mp3"}, nil, dir, "")
		assert.Len(t, warnings, 1)
		assert.Zero(t, record.Duration)
	})

	t.Run("audio file missing", func(t *testing.T) {
		prober := &stubProber{seconds: 10}
		record, warnings := NewMerger(prober).Merge(header.Fields{"mp3": "absent.mp3"}, nil, dir, "")
		assert.Empty(t, warnings)
		assert.Zero(t, record.Duration)
		assert.Zero(t, prober.calls)
	})
}

func TestRowID(t *testing.T) {
	tests := []struct {
		row    model.Row
		want   uint64
		wantOK bool
	}{
		{model.Row{"id": int64(5)}, 5, true},
		{model.Row{"id": 7}, 7, true},
		{model.Row{"id": "12"}, 12, true},
		{model.Row{"id": 3.0}, 3, true},
		{model.Row{"title": "x"}, 0, false},
		{model.Row{"id": "abc"}, 0, false},
	}

	for _, tt := range tests {
		got, ok := rowID(tt.row)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.row)
		if tt.wantOK {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestEngine_RefreshSkipsFolderWithoutConfig(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "One", songText("One", "A"), "")
	lib.addSong(t, "Two", songText("Two", "B"), "")
	lib.addSong(t, "Three", "", "")

	count, err := lib.engine.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows, err := lib.engine.Query(context.Background(), "select * from songs")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	warnings := lib.warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, lib.songDir("Three"), warnings[0].Path)
}

func TestEngine_RefreshRepairsHeader(t *testing.T) {
	lib := newTestLibrary(t)
	original := "#TITLE:Bare\n#MP3:song.mp3\n#BPM:200\n: 0 1 2 la\n"
	lib.addSong(t, "Bare", original, "")

	_, err := lib.engine.Refresh(context.Background())
	require.NoError(t, err)

	songs, err := lib.engine.FindSongs(context.Background(), map[string]any{"title": "Bare"})
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, header.Placeholder, songs[0].Artist)
	assert.Equal(t, header.Placeholder, songs[0].Genre)

	base, _ := ConfigPaths(lib.songDir("Bare"))
	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#GENRE:UNKNOWN\n#EDITION:UNKNOWN\n#LANGUAGE:UNKNOWN\n#ARTIST:UNKNOWN\n"))
	assert.True(t, strings.HasSuffix(string(data), original))

	backup, err := os.ReadFile(base + ioutils.DefaultBackupExt)
	require.NoError(t, err)
	assert.Equal(t, original, string(backup))

	assert.True(t, lo.ContainsBy(lib.events, func(e Event) bool {
		return e.Level == LevelInfo && strings.Contains(e.Message, "repaired")
	}))

	// A second refresh finds nothing left to repair.
	lib.events = nil
	_, err = lib.engine.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, lo.ContainsBy(lib.events, func(e Event) bool {
		return strings.Contains(e.Message, "repaired")
	}))
}

func TestEngine_RefreshDropsCorruptConfig(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "Good", songText("Good", "A"), "")
	lib.addSong(t, "Broken", "garbage without header\n", "")

	count, err := lib.engine.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	warnings := lib.warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, header.ErrCorruptConfig.Error())
}

func TestEngine_Duet(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "Duet", songText("Duet", "A"), songText("Duet", "A", "#DUETSINGERP1:Alice", "#DUETSINGERP2:Bob"))

	_, err := lib.engine.Refresh(context.Background())
	require.NoError(t, err)

	song, err := lib.engine.Song(context.Background(), uint64(songID(t, lib, "Duet")))
	require.NoError(t, err)
	assert.True(t, song.IsMulti)
	assert.Equal(t, map[string]string{"p1": "Alice", "p2": "Bob"}, song.Singers)
	assert.Equal(t, 300.5, song.BPM)
}

func TestEngine_UpdateWritesStoreAndFiles(t *testing.T) {
	lib := newTestLibrary(t)
	for i := 1; i <= 4; i++ {
		name := fmt.Sprintf("Song %d", i)
		lib.addSong(t, name, songText(name, "A"), "")
	}
	lib.addSong(t, "Song 5", songText("Song 5", "A"), songText("Song 5", "A", "#DUETSINGERP1:Alice"))

	ctx := context.Background()
	_, err := lib.engine.Refresh(ctx)
	require.NoError(t, err)

	id := songID(t, lib, "Song 5")
	result, err := lib.engine.Update(ctx, RowSelection{{"id": id}}, "genre", "Rock")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Len(t, result.Files, 2)

	song, err := lib.engine.Song(ctx, uint64(id))
	require.NoError(t, err)
	assert.Equal(t, "Rock", song.Genre)

	base, multi := ConfigPaths(lib.songDir("Song 5"))
	for _, path := range []string{base, multi} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "#GENRE:Rock\n")
		assert.NotContains(t, string(data), "#GENRE:Pop")
	}

	other, err := lib.engine.FindSongs(ctx, map[string]any{"genre": "Pop"})
	require.NoError(t, err)
	assert.Len(t, other, 4)
}

func TestEngine_UpdateByQueryLocalizesNumbers(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "One", songText("One", "A"), "")

	ctx := context.Background()
	_, err := lib.engine.Refresh(ctx)
	require.NoError(t, err)

	_, err = lib.engine.Update(ctx, QuerySelection("select id from songs where title = 'One'"), "bpm", "322.5")
	require.NoError(t, err)

	base, _ := ConfigPaths(lib.songDir("One"))
	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#BPM:322,5\n")
}

func TestEngine_UpdateRejectsUnknownField(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "One", songText("One", "A"), "")

	ctx := context.Background()
	_, err := lib.engine.Refresh(ctx)
	require.NoError(t, err)

	for _, field := range []string{"id", "tempo"} {
		_, err = lib.engine.Update(ctx, QuerySelection("select id from songs"), field, "1")
		assert.True(t, errors.Is(err, store.ErrUnknownField), field)
	}

	base, _ := ConfigPaths(lib.songDir("One"))
	assert.NoFileExists(t, base+ioutils.DefaultBackupExt)
}

func TestEngine_UpdateMissingRow(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "One", songText("One", "A"), "")

	ctx := context.Background()
	_, err := lib.engine.Refresh(ctx)
	require.NoError(t, err)
	lib.events = nil

	result, err := lib.engine.Update(ctx, RowSelection{{"id": int64(99)}, {"title": "no id"}}, "genre", "Rock")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, lib.warnings(), 2)
}

func TestEngine_UpdateRejectsUnencodableValue(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "One", songText("One", "A"), "")

	ctx := context.Background()
	_, err := lib.engine.Refresh(ctx)
	require.NoError(t, err)
	id := songID(t, lib, "One")

	result, err := lib.engine.Update(ctx, RowSelection{{"id": id}}, "genre", "日本")
	assert.ErrorIs(t, err, ioutils.ErrUnencodable)
	assert.Zero(t, result.Updated)

	song, err := lib.engine.Song(ctx, uint64(id))
	require.NoError(t, err)
	assert.Equal(t, "Pop", song.Genre)

	base, _ := ConfigPaths(lib.songDir("One"))
	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#GENRE:Pop\n")
	assert.NoFileExists(t, base+ioutils.DefaultBackupExt)
}

func TestEngine_UpdateKeepsRowWhenFilesFail(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "Broken", songText("Broken", "A"), songText("Broken", "A", "#DUETSINGERP1:Alice"))
	lib.addSong(t, "Fine", songText("Fine", "B"), "")

	ctx := context.Background()
	_, err := lib.engine.Refresh(ctx)
	require.NoError(t, err)

	// the duet file becomes unreadable after the scan
	base, multi := ConfigPaths(lib.songDir("Broken"))
	require.NoError(t, os.Remove(multi))
	require.NoError(t, os.Mkdir(multi, 0755))
	lib.events = nil

	result, err := lib.engine.Update(ctx, QuerySelection("select id from songs order by title"), "genre", "Rock")
	require.ErrorIs(t, err, ErrFilesNotUpdated)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []string{lib.songDir("Broken")}, result.Failed)

	broken, err := lib.engine.Song(ctx, uint64(songID(t, lib, "Broken")))
	require.NoError(t, err)
	assert.Equal(t, "Pop", broken.Genre)

	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#GENRE:Pop\n")

	fine, err := lib.engine.Song(ctx, uint64(songID(t, lib, "Fine")))
	require.NoError(t, err)
	assert.Equal(t, "Rock", fine.Genre)

	assert.True(t, lo.ContainsBy(lib.events, func(e Event) bool {
		return e.Level == LevelError && e.Path == lib.songDir("Broken")
	}))
}

func TestEngine_QueryErrorPropagates(t *testing.T) {
	lib := newTestLibrary(t)

	_, err := lib.engine.Query(context.Background(), "select * from nowhere")
	assert.Error(t, err)
}

func TestEngine_Playlists(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "One", songText("One", "A"), "")
	lib.addSong(t, "Two", songText("Two", "B"), "")

	ctx := context.Background()
	_, err := lib.engine.Refresh(ctx)
	require.NoError(t, err)

	_, err = lib.engine.CreatePlaylist(ctx, QuerySelection("select id from songs order by title desc"), "Party")
	require.NoError(t, err)

	playlist, err := lib.engine.LoadPlaylist("Party")
	require.NoError(t, err)
	assert.Equal(t, "Party", playlist.Name)
	assert.Equal(t, []model.PlaylistEntry{{Artist: "B", Title: "Two"}, {Artist: "A", Title: "One"}}, playlist.Songs)

	names, err := lib.engine.ListPlaylists("par")
	require.NoError(t, err)
	assert.Equal(t, []string{"Party"}, names)

	_, err = lib.engine.StorePlaylist([]model.PlaylistEntry{{Artist: "A", Title: "One"}, {Artist: "Z", Title: "Gone"}}, "Mixed")
	require.NoError(t, err)

	songs, err := lib.engine.PlaylistSongs(ctx, "Mixed")
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "One", songs[0].Title)

	path, err := lib.engine.ExportPlaylist(ctx, "Mixed", audio.FormatM3U)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), filepath.Join(lib.songDir("One"), "song.mp3"))
}

func TestEngine_RestoreBackup(t *testing.T) {
	lib := newTestLibrary(t)
	original := songText("One", "A")
	lib.addSong(t, "One", original, "")

	ctx := context.Background()
	_, err := lib.engine.Refresh(ctx)
	require.NoError(t, err)

	_, err = lib.engine.Update(ctx, QuerySelection("select id from songs"), "genre", "Rock")
	require.NoError(t, err)

	restored, err := lib.engine.RestoreBackup(true)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)

	base, _ := ConfigPaths(lib.songDir("One"))
	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
	assert.NoFileExists(t, base+ioutils.DefaultBackupExt)
}

func TestEngine_LoadFromDatabase(t *testing.T) {
	lib := newTestLibrary(t)
	lib.addSong(t, "One", songText("One", "A"), "")

	ctx := context.Background()
	count, err := lib.engine.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, lib.engine.Close())

	// New songs on disk are not seen when reading from the database.
	lib.addSong(t, "Two", songText("Two", "B"), "")
	lib.settings.ReadFromDB = true

	engine, err := NewEngine(lib.settings, nil)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	count, err = engine.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
