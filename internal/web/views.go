package web

import "github.com/handiism/ultrastar-library/internal/model"

type songView struct {
	ID       uint64            `json:"id"`
	Title    string            `json:"title"`
	Artist   string            `json:"artist"`
	Language string            `json:"language"`
	Edition  string            `json:"edition"`
	Genre    string            `json:"genre"`
	Year     string            `json:"year"`
	BPM      float64           `json:"bpm"`
	Duration string            `json:"duration"`
	Multi    string            `json:"multi"`
	Singers  map[string]string `json:"singers,omitempty"`
}

func newSongView(song *model.SongRecord) songView {
	multi := "No"
	if song.IsMulti {
		multi = "Yes"
	}

	return songView{
		ID:       song.ID,
		Title:    song.Title,
		Artist:   song.Artist,
		Language: song.Language,
		Edition:  song.Edition,
		Genre:    song.Genre,
		Year:     song.Year,
		BPM:      song.BPM,
		Duration: model.FormatDuration(song.Duration, true),
		Multi:    multi,
		Singers:  song.Singers,
	}
}

type playlistEntryView struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

type playlistView struct {
	Name  string              `json:"name"`
	Songs []playlistEntryView `json:"songs"`
}

func newPlaylistView(playlist *model.PlaylistRecord) playlistView {
	view := playlistView{Name: playlist.Name, Songs: make([]playlistEntryView, len(playlist.Songs))}
	for i, song := range playlist.Songs {
		view.Songs[i] = playlistEntryView{Artist: song.Artist, Title: song.Title}
	}
	return view
}
