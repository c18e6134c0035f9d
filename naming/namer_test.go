package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/video-fetcher"
)

func touch(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	assert_.NoError(t, afero.WriteFile(fs, path, []byte("x"), 0644))
}

func TestResolve_NoCollision(t *testing.T) {
	assert := assert_.New(t)
	fs := afero.NewMemMapFs()
	assert.NoError(fs.MkdirAll("/videos", 0755))
	n := New(fs)

	named, err := n.Resolve("/videos", "Sample", "mp4")
	assert.NoError(err)
	assert.Equal(NamedPath{Stem: "Sample", Path: filepath.Join("/videos", "Sample.mp4")}, named)

	// Resolving again without writing anything gives the same answer
	again, err := n.Resolve("/videos", "Sample", ".mp4")
	assert.NoError(err)
	assert.Equal(named, again)
}

func TestResolve_Collisions(t *testing.T) {
	assert := assert_.New(t)
	fs := afero.NewMemMapFs()
	touch(t, fs, "/videos/title.mp4")
	touch(t, fs, "/videos/title (2).mp4")
	n := New(fs)

	named, err := n.Resolve("/videos", "title", "mp4")
	assert.NoError(err)
	assert.Equal("title (3)", named.Stem)
	assert.Equal(filepath.Join("/videos", "title (3).mp4"), named.Path)

	// A different extension doesn't collide
	named, err = n.Resolve("/videos", "title", "webm")
	assert.NoError(err)
	assert.Equal("title", named.Stem)
}

func TestResolve_Exhausted(t *testing.T) {
	assert := assert_.New(t)
	fs := afero.NewMemMapFs()
	touch(t, fs, "/videos/a.mp4")
	for i := 2; i <= 3; i++ {
		touch(t, fs, fmt.Sprintf("/videos/a (%d).mp4", i))
	}
	n := New(fs)
	n.Limit = 3

	_, err := n.Resolve("/videos", "a", "mp4")
	assert.ErrorIs(err, video_fetcher.ErrNamingExhausted)

	n.Limit = 4
	named, err := n.Resolve("/videos", "a", "mp4")
	assert.NoError(err)
	assert.Equal("a (4)", named.Stem)
}

func TestSanitize(t *testing.T) {
	assert := assert_.New(t)
	cases := map[string]string{
		"Sample":                      "Sample",
		`a: b * c ? "d" 'e' <f> | g.`: "a b  c  d e f  g",
		"../../etc/passwd":            "etcpasswd",
		`C:\Users\me`:                 "CUsersme",
		"  padded  ":                  "padded",
		"tab\there":                   "tabhere",
		"...":                         Untitled,
		"":                            Untitled,
		"日本語のタイトル":                    "日本語のタイトル",
	}
	for input, expected := range cases {
		assert.Equal(expected, Sanitize(input), "Sanitize(%q)", input)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	assert := assert_.New(t)
	inputs := []string{
		`My "Best" Video: Part 1/2 | Live?`,
		" . leading dot",
		`\\server\share`,
		"plain title",
	}
	for _, input := range inputs {
		once := Sanitize(input)
		assert.Equal(once, Sanitize(once))
		assert.False(strings.ContainsAny(once, illegalChars), "sanitized %q still contains illegal characters", once)
	}
}

func TestResolve_SanitizedStemIsStable(t *testing.T) {
	assert := assert_.New(t)
	fs := afero.NewMemMapFs()
	n := New(fs)
	first, err := n.Resolve("/videos", `What? A "video"`, "mp4")
	assert.NoError(err)
	second, err := n.Resolve("/videos", first.Stem, "mp4")
	assert.NoError(err)
	assert.Equal(first, second)
}
