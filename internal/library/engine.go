package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/handiism/ultrastar-library/internal/audio"
	"github.com/handiism/ultrastar-library/internal/config"
	"github.com/handiism/ultrastar-library/internal/header"
	ioutils "github.com/handiism/ultrastar-library/internal/io"
	"github.com/handiism/ultrastar-library/internal/model"
	"github.com/handiism/ultrastar-library/internal/store"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Level indicates the severity of an Event.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Event reports what the engine did or skipped. Path names the file or
// folder concerned, if any.
type Event struct {
	Message string
	Level   Level
	Path    string
}

// UpdateResult summarizes a field update.
type UpdateResult struct {
	// Rows is the number of selected rows.
	Rows int

	// Updated counts the rows changed in the store.
	Updated int

	// Skipped counts the rows without id or that vanished from the store.
	Skipped int

	// Files lists the song files rewritten.
	Files []string

	// Failed lists the folders of songs whose files could not be
	// rewritten. Their store rows are unchanged.
	Failed []string
}

// ErrFilesNotUpdated is returned by Update when the config files of some
// selected songs could not be rewritten.
var ErrFilesNotUpdated = errors.New("song files not updated")

// Engine owns the song library: the store, the song files and the
// playlists.
//
// An Engine is created once per process and must be closed. Its methods may
// be called from several goroutines, but Load, Refresh and Update are
// expected to be driven by a single operator.
type Engine struct {
	settings  *config.Settings
	store     *store.Store
	codec     *ioutils.TextCodec
	backups   *ioutils.BackupManager
	repairer  *header.Repairer
	prober    *audio.DurationProber
	merger    *Merger
	scanner   *Scanner
	playlists *audio.PlaylistManager

	onEvent func(Event)
	mu      sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewEngine opens the store named in settings and wires the library
// services. onEvent may be nil.
func NewEngine(settings *config.Settings, onEvent func(Event)) (*Engine, error) {
	codec, err := ioutils.NewTextCodec(settings.Encoding)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(settings.DBFile)
	if err != nil {
		return nil, err
	}

	backups := ioutils.NewBackupManager(settings.DoBackup)
	prober := audio.NewDurationProber(audio.DefaultProbeCacheSize)

	e := &Engine{
		settings:  settings,
		store:     db,
		codec:     codec,
		backups:   backups,
		repairer:  header.NewRepairer(codec, backups),
		prober:    prober,
		merger:    NewMerger(prober),
		playlists: audio.NewPlaylistManager(settings.FullPlaylistDir(), codec, backups),
		onEvent:   onEvent,
	}
	e.scanner = &Scanner{OnSkip: func(dir string) {
		e.emit(LevelWarning, dir, "skipping %s: no config file %s", filepath.Base(dir), filepath.Base(dir)+".txt")
	}}

	return e, nil
}

// Close releases the store and the caches. Calling Close again is a no-op.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.prober.Stop()
		e.closeErr = e.store.Close()
	})
	return e.closeErr
}

// Settings returns the settings the engine was created with.
func (e *Engine) Settings() *config.Settings {
	return e.settings
}

// Load makes the library available. With read_from_db the existing store
// is used as is, otherwise the library is rebuilt from disk. It returns
// the number of songs.
func (e *Engine) Load(ctx context.Context) (int, error) {
	if !e.settings.ReadFromDB {
		return e.Refresh(ctx)
	}

	count, err := e.store.Count(ctx)
	if err != nil {
		return 0, err
	}

	e.emit(LevelInfo, e.settings.DBFile, "loaded %d songs from database", count)
	return int(count), nil
}

// Refresh scans the songs directory, repairs incomplete headers and
// replaces the store content with the result. It returns the number of
// songs stored.
//
// Songs are processed concurrently; the store is only written once all of
// them are done, in scan order.
func (e *Engine) Refresh(ctx context.Context) (int, error) {
	songsDir := e.settings.FullSongsDir()
	e.emit(LevelInfo, songsDir, "scanning %s", songsDir)

	seq, err := e.scanner.Scan(songsDir)
	if err != nil {
		return 0, err
	}
	entries := slices.Collect(seq)

	results := make([]*model.SongRecord, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.settings.MaxConcurrentSongs, 1))

	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.processSong(entry)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	records := lo.Compact(results)
	if err := e.store.Rebuild(ctx, records); err != nil {
		return 0, fmt.Errorf("rebuild library: %w", err)
	}

	e.emit(LevelSuccess, songsDir, "library rebuilt with %d songs", len(records))
	return len(records), nil
}

// processSong turns a folder into a record, or nil when the base config is
// unusable.
func (e *Engine) processSong(entry model.SongEntry) *model.SongRecord {
	base, ok := e.readConfig(entry.BaseConfigPath)
	if !ok {
		return nil
	}

	var multi header.Fields
	if entry.HasMulti() {
		if fields, ok := e.readConfig(entry.MultiConfigPath); ok {
			multi = fields
		}
	}

	record, warnings := e.merger.Merge(base, multi, entry.Directory, entry.BaseConfigPath)
	for _, warning := range warnings {
		e.emit(LevelWarning, entry.Directory, "%s", warning)
	}

	e.emit(LevelVerbose, entry.BaseConfigPath, "read %s", record)
	return record
}

// readConfig reads, parses and repairs one config file.
func (e *Engine) readConfig(path string) (header.Fields, bool) {
	text, err := e.codec.ReadFile(path)
	if err != nil {
		e.emit(LevelWarning, path, "skipping %s: %v", filepath.Base(path), err)
		return nil, false
	}

	parsed, err := header.Parse(text, path)
	if err != nil {
		e.emit(LevelWarning, path, "skipping %v", err)
		return nil, false
	}

	for _, key := range parsed.Absent {
		e.emit(LevelWarning, path, "%s: field %s missing, not repaired", filepath.Base(path), key)
	}

	if len(parsed.Missing) > 0 {
		keys := lo.Map(parsed.Missing, func(f header.Field, _ int) string { return f.Key })
		if err := e.repairer.Repair(parsed.Missing, text, path); err != nil {
			e.emit(LevelWarning, path, "could not repair %s: %v", filepath.Base(path), err)
		} else {
			e.emit(LevelInfo, path, "repaired %s: added %s", filepath.Base(path), strings.Join(keys, ", "))
		}
	}

	return parsed.Fields, true
}

// Query runs statement verbatim against the store.
//
// This is the operator entry point: the statement is neither validated nor
// parameterized and errors are returned unchanged. Never pass it input from
// an untrusted source; use FindSongs instead.
func (e *Engine) Query(ctx context.Context, statement string) ([]model.Row, error) {
	return e.store.Query(ctx, statement)
}

// FindSongs returns the songs matching all column conditions.
func (e *Engine) FindSongs(ctx context.Context, conditions map[string]any) ([]*model.SongRecord, error) {
	return e.store.FindSongs(ctx, conditions)
}

// Song returns a single song.
func (e *Engine) Song(ctx context.Context, id uint64) (*model.SongRecord, error) {
	return e.store.Song(ctx, id)
}

// Fields returns the columns of the songs table.
func (e *Engine) Fields(ctx context.Context) ([]store.Column, error) {
	return e.store.Fields(ctx)
}

// Update sets field to value for every selected song, in the song's base
// and duet config files and in the store.
//
// The field must be an updatable column and value must fit both the column
// and the library's text encoding; otherwise an error is returned before
// anything changes. Rows without id and rows missing from the store are
// skipped with a warning.
//
// The files of a song are written first and its store row only once they
// all succeeded, so a song whose files cannot be rewritten keeps its old
// row. Such songs are listed in UpdateResult.Failed and the returned error
// wraps ErrFilesNotUpdated.
func (e *Engine) Update(ctx context.Context, sel Selection, field, value string) (UpdateResult, error) {
	field = strings.ToLower(field)
	if _, err := store.ColumnValue(field, value); err != nil {
		return UpdateResult{}, err
	}
	if _, err := e.codec.Encode(value); err != nil {
		return UpdateResult{}, fmt.Errorf("set %s: %w", field, err)
	}

	rows, err := e.resolve(ctx, sel)
	if err != nil {
		return UpdateResult{}, err
	}

	result := UpdateResult{Rows: len(rows)}
	for _, row := range rows {
		id, ok := rowID(row)
		if !ok {
			e.emit(LevelWarning, "", "skipping row without id: %v", row)
			result.Skipped++
			continue
		}

		song, err := e.store.Song(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			e.emit(LevelWarning, "", "no song with id %d", id)
			result.Skipped++
			continue
		}
		if err != nil {
			return result, err
		}

		changes, err := e.prepareSongFiles(song, field, value)
		if err == nil {
			err = e.repairer.Apply(changes)
		}
		if err != nil {
			e.emit(LevelError, song.Directory, "could not update %s: %v", song, err)
			result.Failed = append(result.Failed, song.Directory)
			continue
		}

		if _, err := e.store.UpdateField(ctx, id, field, value); err != nil {
			return result, errors.Join(fmt.Errorf("update song %d: %w", id, err), e.repairer.Revert(changes))
		}
		result.Updated++

		for _, change := range changes {
			e.emit(LevelVerbose, change.Path, "set %s in %s", strings.ToUpper(field), filepath.Base(change.Path))
			result.Files = append(result.Files, change.Path)
		}
	}

	e.emit(LevelSuccess, "", "updated %s on %d songs", field, result.Updated)
	if len(result.Failed) > 0 {
		return result, fmt.Errorf("%w: %s", ErrFilesNotUpdated, strings.Join(result.Failed, ", "))
	}
	return result, nil
}

// prepareSongFiles renders the header change of field for the song's base
// and duet config files. Files without a line for field are left out.
func (e *Engine) prepareSongFiles(song *model.SongRecord, field, value string) ([]header.Change, error) {
	var changes []header.Change

	base, multi := ConfigPaths(song.Directory)
	for _, path := range []string{base, multi} {
		if !ioutils.Exists(path) {
			continue
		}

		change, ok, err := e.repairer.PrepareUpdate(path, field, value)
		if err != nil {
			return nil, err
		}
		if !ok {
			e.emit(LevelVerbose, path, "%s has no %s line", filepath.Base(path), strings.ToUpper(field))
			continue
		}
		changes = append(changes, change)
	}

	return changes, nil
}

// StorePlaylist writes songs as playlist name and returns its path.
func (e *Engine) StorePlaylist(songs []model.PlaylistEntry, name string) (string, error) {
	path, err := e.playlists.Store(songs, name)
	if err != nil {
		return "", err
	}

	e.emit(LevelSuccess, path, "stored playlist %s with %d songs", name, len(songs))
	return path, nil
}

// CreatePlaylist stores the selected songs as playlist name, keeping the
// selection order.
func (e *Engine) CreatePlaylist(ctx context.Context, sel Selection, name string) (string, error) {
	rows, err := e.resolve(ctx, sel)
	if err != nil {
		return "", err
	}

	var entries []model.PlaylistEntry
	for _, row := range rows {
		id, ok := rowID(row)
		if !ok {
			e.emit(LevelWarning, "", "skipping row without id: %v", row)
			continue
		}

		song, err := e.store.Song(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			e.emit(LevelWarning, "", "no song with id %d", id)
			continue
		}
		if err != nil {
			return "", err
		}

		entries = append(entries, model.PlaylistEntry{Artist: song.Artist, Title: song.Title})
	}

	return e.StorePlaylist(entries, name)
}

// LoadPlaylist reads playlist name.
func (e *Engine) LoadPlaylist(name string) (*model.PlaylistRecord, error) {
	return e.playlists.Load(name)
}

// ListPlaylists returns the playlist names containing filter.
func (e *Engine) ListPlaylists(filter string) ([]string, error) {
	return e.playlists.List(filter)
}

// PlaylistSongs resolves the entries of playlist name to library songs.
// Entries without a matching song are reported and left out.
func (e *Engine) PlaylistSongs(ctx context.Context, name string) ([]*model.SongRecord, error) {
	playlist, err := e.playlists.Load(name)
	if err != nil {
		return nil, err
	}

	songs := make([]*model.SongRecord, 0, len(playlist.Songs))
	for _, entry := range playlist.Songs {
		found, err := e.store.FindSongs(ctx, map[string]any{
			model.KeyArtist: entry.Artist,
			model.KeyTitle:  entry.Title,
		})
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			e.emit(LevelWarning, playlist.Path, "%s : %s is not in the library", entry.Artist, entry.Title)
			continue
		}
		songs = append(songs, found[0])
	}

	return songs, nil
}

// ExportPlaylist writes playlist name next to it in format and returns the
// exported file path.
func (e *Engine) ExportPlaylist(ctx context.Context, name string, format audio.ExportFormat) (string, error) {
	songs, err := e.PlaylistSongs(ctx, name)
	if err != nil {
		return "", err
	}

	path := strings.TrimSuffix(e.playlists.Path(name), audio.PlaylistExt) + format.Ext()
	if err := os.WriteFile(path, []byte(audio.Export(format, songs)), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	e.emit(LevelSuccess, path, "exported playlist %s", name)
	return path, nil
}

// CoverPath returns the cover image of a song.
func (e *Engine) CoverPath(ctx context.Context, id uint64) (string, error) {
	song, err := e.store.Song(ctx, id)
	if err != nil {
		return "", err
	}
	if song.CoverFile == "" {
		return "", fmt.Errorf("song %d has no cover: %w", id, os.ErrNotExist)
	}
	return filepath.Join(song.Directory, song.CoverFile), nil
}

// RestoreBackup copies the backup of every base and duet config in the
// songs directory over the live file. It returns the number of files
// restored.
func (e *Engine) RestoreBackup(deleteBackup bool) (int, error) {
	songsDir := e.settings.FullSongsDir()
	entries, err := os.ReadDir(songsDir)
	if err != nil {
		return 0, fmt.Errorf("read songs directory: %w", err)
	}

	restored := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		base, multi := ConfigPaths(filepath.Join(songsDir, entry.Name()))
		for _, path := range []string{base, multi} {
			ok, err := e.backups.Restore(path, deleteBackup)
			if err != nil {
				return restored, err
			}
			if ok {
				restored++
				e.emit(LevelVerbose, path, "restored %s", filepath.Base(path))
			}
		}
	}

	e.emit(LevelSuccess, songsDir, "restored %d files", restored)
	return restored, nil
}

func (e *Engine) emit(level Level, path, format string, args ...any) {
	if e.onEvent == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEvent(Event{Message: fmt.Sprintf(format, args...), Level: level, Path: path})
}
