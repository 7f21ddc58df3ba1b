// Package store keeps the song library in a SQLite database through gorm.
//
// The schema has two tables: songs, one row per song folder, and multi,
// one row per duet singer slot referencing songs.id. The library is always
// rebuilt as a whole; single rows are only changed through UpdateField.
package store
