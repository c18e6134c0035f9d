package util

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/video-fetcher"
)

func TestValidateURL(t *testing.T) {
	assert := assert_.New(t)

	u, err := ValidateURL("  https://www.youtube.com/watch?v=abc  ")
	assert.NoError(err)
	assert.Equal("www.youtube.com", u.Host)

	for _, s := range []string{"", "   ", "youtube.com/watch?v=abc", "ftp://example.com/a.mp4", "https://", "://bad", "http://[::1"} {
		_, err := ValidateURL(s)
		assert.ErrorIs(err, video_fetcher.ErrInvalidURL, s)
	}
}

func TestFilenameFromURLString(t *testing.T) {
	assert := assert_.New(t)
	cases := map[string]string{
		"https://example.com/a/b/clip.mp4":  "clip.mp4",
		"https://example.com/clip.mp4/":     "clip.mp4",
		"https://example.com/My%20Clip.mkv": "My Clip.mkv",
	}
	for input, expected := range cases {
		filename, err := FilenameFromURLString(input)
		assert.NoError(err, input)
		assert.Equal(expected, filename, input)
	}
	for _, input := range []string{"https://example.com", "https://example.com/", "https://example.com/..", "https://example.com/a/..."} {
		_, err := FilenameFromURLString(input)
		assert.ErrorIs(err, ErrNoFilename, input)
	}
	_, err := FilenameFromURL(nil)
	assert.ErrorIs(err, ErrNoFilename)
}
