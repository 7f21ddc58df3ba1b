package audio

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bogem/id3v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/h2non/filetype"
	"github.com/karlseguin/ccache/v3"
	"go.senan.xyz/taglib"
)

// ErrUnsupportedFormat is returned when a file is not recognized as audio.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

const (
	// DefaultProbeCacheSize is the number of durations kept in memory.
	DefaultProbeCacheSize = 5000

	// DefaultProbeTTL is how long a probed duration stays cached.
	DefaultProbeTTL = 24 * time.Hour
)

// DurationProber measures the playing time of audio files.
//
// MP3 files are read from their ID3 TLEN frame when present and decoded
// otherwise. Other audio formats go through taglib. Results are cached by
// path, size and modification time, so a refresh over an unchanged library
// does not touch the audio files again.
//
// A DurationProber is safe for concurrent use.
//
// Example:
//
//	prober := audio.NewDurationProber(audio.DefaultProbeCacheSize)
//	seconds, err := prober.Probe("/songs/Artist - Title/Artist - Title.mp3")
type DurationProber struct {
	cache *ccache.Cache[float64]
	ttl   time.Duration
}

// NewDurationProber creates a DurationProber caching up to size results.
func NewDurationProber(size int64) *DurationProber {
	if size <= 0 {
		size = DefaultProbeCacheSize
	}

	return &DurationProber{
		cache: ccache.New(
			ccache.Configure[float64]().
				MaxSize(size).
				GetsPerPromote(3).
				ItemsToPrune(1),
		),
		ttl: DefaultProbeTTL,
	}
}

// Probe returns the duration of the file at path in seconds.
func (p *DurationProber) Probe(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	item, err := p.cache.Fetch(key, p.ttl, func() (float64, error) {
		return probe(path)
	})
	if err != nil {
		return 0, err
	}

	return item.Value(), nil
}

// Stop releases the cache worker.
func (p *DurationProber) Stop() {
	p.cache.Stop()
}

func probe(path string) (float64, error) {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return 0, err
	}

	switch {
	case kind.Extension == "mp3":
		if seconds, ok := lengthFrame(path); ok {
			return seconds, nil
		}
		return decodeMP3(path)
	case kind.MIME.Type == "audio":
		properties, err := taglib.ReadProperties(path)
		if err != nil {
			return 0, fmt.Errorf("read properties %s: %w", path, err)
		}
		return properties.Length.Seconds(), nil
	default:
		return 0, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// lengthFrame reads the ID3 TLEN frame, which stores the length in
// milliseconds.
func lengthFrame(path string) (float64, bool) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"TLEN"}})
	if err != nil {
		return 0, false
	}
	defer tag.Close()

	ms, err := strconv.ParseFloat(strings.TrimSpace(tag.GetTextFrame("TLEN").Text), 64)
	if err != nil || ms <= 0 {
		return 0, false
	}

	return ms / 1000, true
}

func decodeMP3(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()).Seconds(), nil
}
