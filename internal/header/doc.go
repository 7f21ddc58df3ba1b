// Package header reads and rewrites the "#KEY:VALUE" header block of
// UltraStar song files.
//
// A song file starts with header lines such as:
//
//	#TITLE:Human
//	#ARTIST:The Killers
//	#BPM:268,04
//	#GAP:12983,14
//
// followed by the note body, which this package never modifies.
//
// # Codec
//
// Decode and Document.Encode convert between text and lines without any
// filesystem access. Keys are case-insensitive; bpm and videogap use ',' as
// decimal separator on disk and '.' in memory.
//
// # Parsing
//
//	parsed, err := header.Parse(text, path)
//	if errors.Is(err, header.ErrCorruptConfig) {
//	    // drop the song
//	}
//
// # Repairing
//
//	repairer := header.NewRepairer(codec, backups)
//	err := repairer.Repair(parsed.Missing, text, path)
//	ok, err := repairer.UpdateField(path, "genre", "Rock")
package header
