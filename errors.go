package video_fetcher

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidURL       = errors.New("invalid URL")
	ErrFetch            = errors.New("unable to fetch video")
	ErrInvalidDirectory = errors.New("target directory not found")
	ErrNoMatchingStream = errors.New("no matching stream")
	ErrDownload         = errors.New("download failed")
	ErrMux              = errors.New("mux failed")
	ErrNamingExhausted  = errors.New("no free filename")
)

// FetchError wraps a failure to retrieve video metadata. Upstream platforms fail intermittently, so re-submitting
// the same URL sometimes succeeds.
type FetchError struct {
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// VariantRef identifies the stream variant involved in a DownloadError.
type VariantRef interface {
	fmt.Stringer
}

// DownloadError is a failed transfer. Path is the partial file left in place, or empty if no file was created.
type DownloadError struct {
	Variant VariantRef
	Path    string
	Cause   error
}

func (e *DownloadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("download %v: %v", e.Variant, e.Cause)
	}
	return fmt.Sprintf("download %v to %s: %v", e.Variant, e.Path, e.Cause)
}

func (e *DownloadError) Unwrap() error {
	return e.Cause
}

func (e *DownloadError) Is(target error) bool {
	return target == ErrDownload
}

// MuxError is a failure of the external multiplexing (or audio extraction) process, including failure to launch it.
type MuxError struct {
	Cause  error
	Stderr string
}

func (e *MuxError) Error() string {
	msg := fmt.Sprintf("mux: %v", e.Cause)
	if stderr := lastLine(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *MuxError) Unwrap() error {
	return e.Cause
}

func (e *MuxError) Is(target error) bool {
	return target == ErrMux
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
