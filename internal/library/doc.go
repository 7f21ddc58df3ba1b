// Package library keeps an UltraStar song folder tree and its SQLite
// index in sync.
//
// The Engine scans the songs directory, parses every song header, repairs
// missing textual fields in place, merges duet information and probed
// audio durations, and rebuilds the store in one transaction:
//
//	engine, err := library.NewEngine(settings, func(e library.Event) {
//	    log.Println(e.Level, e.Message)
//	})
//	defer engine.Close()
//
//	count, err := engine.Refresh(ctx)
//
// Field updates go through a Selection and are written to both the store
// and the song files:
//
//	_, err = engine.Update(ctx, library.QuerySelection("select id from songs where genre = 'UNKNOWN'"), "genre", "Rock")
//
// Engine.Query executes operator SQL verbatim and must only be reachable
// from trusted input. Programmatic callers use FindSongs.
package library
