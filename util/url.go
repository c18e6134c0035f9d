package util

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/alanbriolat/video-fetcher"
)

var (
	ErrNoFilename = errors.New("cannot extract valid filename")
)

// ValidateURL parses a user-supplied URL, requiring an absolute http(s) URL with a host. Errors wrap
// video_fetcher.ErrInvalidURL.
func ValidateURL(s string) (*url.URL, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", video_fetcher.ErrInvalidURL)
	}
	parsedURL, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", video_fetcher.ErrInvalidURL, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", video_fetcher.ErrInvalidURL, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: missing host", video_fetcher.ErrInvalidURL)
	}
	return parsedURL, nil
}

func FilenameFromURL(url *url.URL) (string, error) {
	if url == nil {
		return "", ErrNoFilename
	}
	path := strings.Trim(url.Path, "/")
	if path == "" {
		return "", ErrNoFilename
	}
	pathElements := strings.Split(path, "/")
	filename := pathElements[len(pathElements)-1]
	if filename == "" {
		return "", ErrNoFilename
	}
	// Don't allow "filenames" that are just ".", "..", etc.
	if strings.ReplaceAll(filename, ".", "") == "" {
		return "", ErrNoFilename
	}
	return filename, nil
}

func FilenameFromURLString(s string) (string, error) {
	if parsedURL, err := url.Parse(s); err != nil {
		return "", err
	} else {
		return FilenameFromURL(parsedURL)
	}
}
