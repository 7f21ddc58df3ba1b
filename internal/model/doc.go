// Package model defines the core data structures shared by the library
// packages.
//
// # SongEntry
//
// SongEntry is a song folder found by the scanner, pointing at its base
// config ("Folder/Folder.txt") and the optional duet config
// ("Folder/Folder [MULTI].txt").
//
// # SongRecord
//
// SongRecord is the merged, typed view of a song as stored in the library:
//
//	record, warnings := model.NewSongRecord(fields, dir, basePath)
//	record.Singers["1"] = "Singer One"
//	record.IsMulti = true
//
// # PlaylistRecord
//
// PlaylistRecord is an ordered list of (artist, title) pairs persisted in a
// .upl file.
package model
