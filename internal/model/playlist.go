package model

// PlaylistEntry is one song reference inside a playlist.
type PlaylistEntry struct {
	Artist string
	Title  string
}

// PlaylistRecord is a playlist as persisted in a .upl file.
type PlaylistRecord struct {
	// Name is the playlist name stored in the #Name header.
	Name string

	// Path is the backing .upl file.
	Path string

	// Songs keeps the playlist order.
	Songs []PlaylistEntry
}
