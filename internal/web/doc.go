// Package web serves the song library as a read-only JSON API:
//
//	GET /songs                 songs, filtered by column query parameters
//	GET /songs/{id}            one song
//	GET /songs/{id}/cover      JPEG cover thumbnail
//	GET /playlists?filter=     playlist names
//	GET /playlists/{name}      playlist content
package web
