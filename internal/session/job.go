package session

import (
	"github.com/google/uuid"

	"github.com/alanbriolat/video-fetcher/generic"
	"github.com/alanbriolat/video-fetcher/stream"
)

type JobID string

func NewJobID() JobID {
	return JobID(generic.Unwrap(uuid.NewRandom()).String())
}

type Mode string

const (
	// ModeCombined downloads the best progressive stream as-is.
	ModeCombined Mode = "combined"
	// ModeAudio downloads the best progressive stream, then strips the video track.
	ModeAudio Mode = "audio"
	// ModeHighQuality lets the user pick a video-only stream and merges it with the best audio-only stream.
	ModeHighQuality Mode = "hq"
)

var modes = generic.NewSet(ModeCombined, ModeAudio, ModeHighQuality)

func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	return m, modes.Contains(m)
}

// A Job is one submission. Either URL or Video must be set; a pre-fetched Video skips the fetch step.
type Job struct {
	ID  JobID
	URL string
	// Provider names the provider to use for URL. Empty tries every registered provider in priority order.
	Provider string
	Video    *stream.Video
	Dir      string
	Mode     Mode
}
