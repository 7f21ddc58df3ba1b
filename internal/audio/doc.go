// Package audio provides the audio-side services of the song library:
// measuring song durations and managing playlists.
//
// # Durations
//
// DurationProber detects the file type and picks a reader:
//
//	prober := audio.NewDurationProber(audio.DefaultProbeCacheSize)
//	seconds, err := prober.Probe(path)
//	if errors.Is(err, audio.ErrUnsupportedFormat) {
//	    // not an audio file
//	}
//
// # Playlists
//
// PlaylistManager stores and loads UltraStar .upl playlists:
//
//	playlists := audio.NewPlaylistManager(dir, codec, backups)
//	path, err := playlists.Store(entries, "Party")
//	record, err := playlists.Load("Party")
//
// Export renders songs as M3U or PLS for external players.
package audio
