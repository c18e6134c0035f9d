package session

import (
	"errors"
	"fmt"

	"github.com/alanbriolat/video-fetcher"
)

type Status string

const (
	StatusReady            Status = "ready"
	StatusCancelled        Status = "cancelled"
	StatusInvalidURL       Status = "invalid_url"
	StatusFetchError       Status = "fetch_error"
	StatusInvalidDirectory Status = "invalid_directory"
	StatusNoMatchingStream Status = "no_matching_stream"
	StatusDownloadError    Status = "download_error"
	StatusMuxError         Status = "mux_error"
	StatusNamingExhausted  Status = "naming_exhausted"
	StatusFailed           Status = "failed"
)

// Texts reported through Callbacks.OnStatus while a job is running.
const (
	TextFetching        = "Fetching"
	TextSelectStream    = "Select Stream"
	TextDownloading     = "Downloading"
	TextDownloadVideo   = "Downloading Video"
	TextDownloadAudio   = "Downloading Audio"
	TextExtractingAudio = "Extracting Audio..."
	TextMerging         = "Merging"
	TextReady           = "Ready"
)

const retryHint = "sometimes retrying with the same link actually works"

var statusTexts = map[Status]string{
	StatusReady:            TextReady,
	StatusCancelled:        "Cancelled",
	StatusInvalidURL:       "Invalid URL",
	StatusFetchError:       "Unable to fetch video",
	StatusInvalidDirectory: "Invalid directory",
	StatusNoMatchingStream: "No matching stream",
	StatusDownloadError:    "Download failed",
	StatusMuxError:         "Merging failed",
	StatusNamingExhausted:  "No free filename",
	StatusFailed:           "Failed",
}

func (s Status) String() string {
	if text, ok := statusTexts[s]; ok {
		return text
	}
	return string(s)
}

// Classify maps an error from Submit's collaborators to the Status reported for it.
func Classify(err error) Status {
	switch {
	case err == nil:
		return StatusReady
	case errors.Is(err, video_fetcher.ErrInvalidURL):
		return StatusInvalidURL
	case errors.Is(err, video_fetcher.ErrFetch):
		return StatusFetchError
	case errors.Is(err, video_fetcher.ErrInvalidDirectory):
		return StatusInvalidDirectory
	case errors.Is(err, video_fetcher.ErrNoMatchingStream):
		return StatusNoMatchingStream
	case errors.Is(err, video_fetcher.ErrNamingExhausted):
		return StatusNamingExhausted
	case errors.Is(err, video_fetcher.ErrDownload):
		return StatusDownloadError
	case errors.Is(err, video_fetcher.ErrMux):
		return StatusMuxError
	default:
		return StatusFailed
	}
}

// Outcome is the terminal result of a job.
type Outcome struct {
	JobID  JobID
	Status Status
	// Path of the finished file, only set when Status is StatusReady.
	Path string
	// Retained lists files left on disk by a failed job, or intermediates a finished job could not remove.
	Retained []string
	Err      error
}

// Message is the user-facing description of the outcome.
func (o Outcome) Message() string {
	switch {
	case o.Err == nil:
		return o.Status.String()
	case o.Status == StatusFetchError:
		return fmt.Sprintf("%s: %v (%s)", o.Status, o.Err, retryHint)
	default:
		return fmt.Sprintf("%s: %v", o.Status, o.Err)
	}
}
