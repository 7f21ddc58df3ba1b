// Package config loads the library settings.
//
// Settings are read from a JSON or YAML file:
//
//	ultrastar_dir: /opt/ultrastar
//	songs_dir: songs
//	playlist_dir: playlists
//	encoding: iso-8859-15
//	do_backup: true
//
// Relative songs_dir and playlist_dir are resolved against ultrastar_dir.
package config
