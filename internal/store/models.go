package store

import (
	"github.com/handiism/ultrastar-library/internal/model"
	"github.com/samber/lo"
)

// Song is a row of the songs table.
type Song struct {
	ID       uint64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title    string  `gorm:"column:title" json:"title"`
	Artist   string  `gorm:"column:artist" json:"artist"`
	Language string  `gorm:"column:language" json:"language"`
	Edition  string  `gorm:"column:edition" json:"edition"`
	Genre    string  `gorm:"column:genre" json:"genre"`
	Year     string  `gorm:"column:year;type:text" json:"year"`
	MP3      string  `gorm:"column:mp3" json:"mp3"`
	Cover    string  `gorm:"column:cover" json:"cover"`
	Video    string  `gorm:"column:video" json:"video"`
	VideoGap float64 `gorm:"column:videogap" json:"videogap"`
	BPM      float64 `gorm:"column:bpm" json:"bpm"`
	Gap      float64 `gorm:"column:gap" json:"gap"`
	Path     string  `gorm:"column:path" json:"path"`
	Dirname  string  `gorm:"column:dirname" json:"dirname"`
	Duration float64 `gorm:"column:duration;default:0" json:"duration"`
	Multi    bool    `gorm:"column:multi" json:"multi"`

	Singers []Singer `gorm:"foreignKey:SongID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Song) TableName() string { return "songs" }

// Singer is a row of the multi table: one duet slot of a song.
type Singer struct {
	ID     uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	SongID uint64 `gorm:"column:song_id;index"`
	Player string `gorm:"column:player"`
	Singer string `gorm:"column:singer"`
}

func (Singer) TableName() string { return "multi" }

func fromRecord(r *model.SongRecord) *Song {
	return &Song{
		ID:       r.ID,
		Title:    r.Title,
		Artist:   r.Artist,
		Language: r.Language,
		Edition:  r.Edition,
		Genre:    r.Genre,
		Year:     r.Year,
		MP3:      r.AudioFile,
		Cover:    r.CoverFile,
		Video:    r.VideoFile,
		VideoGap: r.VideoGap,
		BPM:      r.BPM,
		Gap:      r.Gap,
		Path:     r.SourcePath,
		Dirname:  r.Directory,
		Duration: r.Duration,
		Multi:    r.IsMulti,
		Singers: lo.Map(r.SortedSingerSlots(), func(slot string, _ int) Singer {
			return Singer{Player: slot, Singer: r.Singers[slot]}
		}),
	}
}

// Record converts the row back to a SongRecord.
func (s *Song) Record() *model.SongRecord {
	return &model.SongRecord{
		ID:         s.ID,
		Title:      s.Title,
		Artist:     s.Artist,
		Language:   s.Language,
		Edition:    s.Edition,
		Genre:      s.Genre,
		Year:       s.Year,
		AudioFile:  s.MP3,
		CoverFile:  s.Cover,
		VideoFile:  s.Video,
		VideoGap:   s.VideoGap,
		BPM:        s.BPM,
		Gap:        s.Gap,
		Duration:   s.Duration,
		Directory:  s.Dirname,
		SourcePath: s.Path,
		IsMulti:    s.Multi,
		Singers: lo.SliceToMap(s.Singers, func(singer Singer) (string, string) {
			return singer.Player, singer.Singer
		}),
	}
}
