// Package naming turns a desired title into an output path that doesn't collide with an existing file.
//
// The existence check and the later write are not atomic: a file created by someone else in between will still
// collide. Writers in this module open their output exclusively so that losing that race is an error rather than an
// overwrite.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/afero"

	"github.com/alanbriolat/video-fetcher"
)

const (
	DefaultLimit = 10000
	// Stem used when nothing survives sanitization.
	Untitled = "untitled"
)

// Characters that are illegal in filenames on common filesystems, or that would break the mux command line.
const illegalChars = `\/:*?"'<>|.`

// NamedPath is the result of collision resolution.
type NamedPath struct {
	Stem string
	Path string
}

type Namer struct {
	fs afero.Fs
	// Maximum number of candidates tried before ErrNamingExhausted.
	Limit int
}

func New(fs afero.Fs) *Namer {
	return &Namer{fs: fs, Limit: DefaultLimit}
}

// Sanitize strips characters that are illegal in filenames (and control characters), trims surrounding whitespace,
// and falls back to Untitled if nothing is left. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(illegalChars, r) {
			return -1
		}
		return r
	}, title)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return Untitled
	}
	return cleaned
}

// Resolve returns the first of "dir/title.ext", "dir/title (2).ext", "dir/title (3).ext", ... that doesn't exist.
func (n *Namer) Resolve(dir string, title string, ext string) (NamedPath, error) {
	base := Sanitize(title)
	ext = strings.TrimPrefix(ext, ".")
	limit := n.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	stem := base
	for count := 1; count <= limit; count++ {
		if count > 1 {
			stem = fmt.Sprintf("%s (%d)", base, count)
		}
		path := filepath.Join(dir, stem+"."+ext)
		exists, err := afero.Exists(n.fs, path)
		if err != nil {
			return NamedPath{}, fmt.Errorf("failed to check %s: %w", path, err)
		}
		if !exists {
			return NamedPath{Stem: stem, Path: path}, nil
		}
	}
	return NamedPath{}, fmt.Errorf("%w: %q after %d attempts in %s", video_fetcher.ErrNamingExhausted, base, limit, dir)
}
