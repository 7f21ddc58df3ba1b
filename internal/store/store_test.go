package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/handiism/ultrastar-library/internal/model"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "songs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []*model.SongRecord {
	return []*model.SongRecord{
		{
			Title: "Human", Artist: "The Killers", Genre: "Rock", Year: "2008",
			AudioFile: "human.mp3", BPM: 322.5, Directory: "/songs/Human",
			SourcePath: "/songs/Human/Human.txt", Duration: 245.5,
		},
		{
			Title: "Islands", Artist: "The xx", Genre: "Indie", BPM: 120,
			Directory: "/songs/Islands", SourcePath: "/songs/Islands/Islands.txt",
			IsMulti: true, Singers: map[string]string{"2": "Oliver", "1": "Romy"},
		},
	}
}

func TestStore_RebuildAssignsIDsInOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	records := sampleRecords()

	require.NoError(t, s.Rebuild(ctx, records))
	assert.Equal(t, uint64(1), records[0].ID)
	assert.Equal(t, uint64(2), records[1].ID)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	song, err := s.Song(ctx, 2)
	require.NoError(t, err)
	assert.True(t, song.IsMulti)
	assert.Equal(t, map[string]string{"1": "Romy", "2": "Oliver"}, song.Singers)

	singers, err := s.Query(ctx, "select player, singer from multi where song_id = 2 order by id")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, lo.Map(singers, func(r model.Row, _ int) string { return r["player"].(string) }))
}

func TestStore_RebuildReplacesEverything(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Rebuild(ctx, sampleRecords()))
	require.NoError(t, s.Rebuild(ctx, sampleRecords()[:1]))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	rows, err := s.Query(ctx, "select * from multi")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_YearIsText(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	records := sampleRecords()
	records[1].Year = "UNKNOWN"
	require.NoError(t, s.Rebuild(ctx, records))

	rows, err := s.Query(ctx, "select year from songs order by id")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2008", rows[0]["year"])
	assert.Equal(t, "UNKNOWN", rows[1]["year"])
}

func TestStore_Query(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Rebuild(ctx, sampleRecords()))

	rows, err := s.Query(ctx, "select id, title, bpm from songs where genre = 'Rock'")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Human", rows[0]["title"])
	assert.EqualValues(t, 1, rows[0]["id"])
	assert.InDelta(t, 322.5, rows[0]["bpm"], 0.0001)

	_, err = s.Query(ctx, "select nope from songs")
	assert.Error(t, err)
}

func TestStore_SongNotFound(t *testing.T) {
	s := openStore(t)

	_, err := s.Song(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_UpdateField(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Rebuild(ctx, sampleRecords()))

	ok, err := s.UpdateField(ctx, 1, "genre", "Pop")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateField(ctx, 1, "BPM", "310,25")
	require.NoError(t, err)
	assert.True(t, ok)

	song, err := s.Song(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Pop", song.Genre)
	assert.Equal(t, 310.25, song.BPM)

	ok, err = s.UpdateField(ctx, 99, "genre", "Pop")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestColumnValue(t *testing.T) {
	tests := []struct {
		field   string
		value   string
		want    any
		wantErr error
	}{
		{"genre", "Rock", "Rock", nil},
		{"bpm", "322,5", 322.5, nil},
		{"multi", "true", true, nil},
		{"id", "3", nil, ErrUnknownField},
		{"nope", "x", nil, ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := ColumnValue(tt.field, tt.value)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_FindSongs(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Rebuild(ctx, sampleRecords()))

	songs, err := s.FindSongs(ctx, map[string]any{"artist": "The xx"})
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "Islands", songs[0].Title)

	all, err := s.FindSongs(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.FindSongs(ctx, map[string]any{"1=1; drop table songs; --": 1})
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestStore_Fields(t *testing.T) {
	s := openStore(t)

	columns, err := s.Fields(context.Background())
	require.NoError(t, err)

	names := lo.Map(columns, func(c Column, _ int) string { return c.Name })
	assert.Equal(t, append([]string{"id"}, Columns...), names)
}
