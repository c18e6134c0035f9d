// Package download copies one stream variant to disk in chunks, reporting progress after each chunk.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/stream"
)

const DefaultChunkSize = 1 << 20

// ProgressFunc is called synchronously after every chunk, so it must return quickly. total is 0 while unknown.
type ProgressFunc func(downloaded int64, total int64)

// Percent returns 100*downloaded/total rounded to 2 decimal places, clamped to [0, 100]; 0 if total is unknown.
// A finished empty transfer, where both are 0, is 100.
func Percent(downloaded int64, total int64) float64 {
	if downloaded == total && total >= 0 {
		return 100
	}
	if total <= 0 || downloaded <= 0 {
		return 0
	}
	if downloaded >= total {
		return 100
	}
	return math.Round(10000*float64(downloaded)/float64(total)) / 100
}

type Option func(*Downloader)

func WithChunkSize(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

type Downloader struct {
	fs        afero.Fs
	chunkSize int
}

func New(fs afero.Fs, opts ...Option) *Downloader {
	d := &Downloader{fs: fs, chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch streams variant to dir/filename.<container>. The returned path is non-empty whenever a file was created, even
// on error: a failed transfer leaves its partial file in place for the caller to deal with.
func (d *Downloader) Fetch(ctx context.Context, opener stream.Opener, variant stream.Variant, dir string, filename string, onProgress ProgressFunc) (string, error) {
	log := video_fetcher.Logger(ctx).Sugar().With("itag", variant.ID)
	targetPath := filepath.Join(dir, filename+"."+variant.Container)
	fail := func(path string, err error) (string, error) {
		return path, &video_fetcher.DownloadError{Variant: variant, Path: path, Cause: err}
	}

	src, size, err := opener.Open(ctx, variant)
	if err != nil {
		return fail("", fmt.Errorf("failed to open stream: %w", err))
	}
	defer src.Close()

	p := &progress{callback: onProgress}
	if known, ok := variant.Size.Get(); ok && known > 0 {
		p.expected = known
	} else if size > 0 {
		p.expected = size
	}

	// Exclusive create: never overwrite, even if something appeared since the name was chosen
	f, err := d.fs.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fail("", fmt.Errorf("failed to open target file: %w", err))
	}
	log.Debugw("downloading", "path", targetPath, "expected", p.expected)

	buf := make([]byte, d.chunkSize)
	// The progress writer goes last so only bytes that reached the file are counted
	_, copyErr := io.CopyBuffer(io.MultiWriter(f, p), video_fetcher.ReaderContext(ctx, src), buf)
	closeErr := f.Close()
	if copyErr != nil {
		return fail(targetPath, fmt.Errorf("failed to save stream: %w", copyErr))
	}
	if closeErr != nil {
		return fail(targetPath, fmt.Errorf("failed to close target file: %w", closeErr))
	}
	if err := p.finish(); err != nil {
		return fail(targetPath, err)
	}
	log.Debugw("downloaded", "path", targetPath, "bytes", p.downloaded)
	return targetPath, nil
}

var errShortTransfer = errors.New("stream ended early")

// progress counts bytes written through it and forwards each update to the callback.
type progress struct {
	callback   ProgressFunc
	downloaded int64
	expected   int64
}

func (p *progress) Write(b []byte) (int, error) {
	n := len(b)
	p.downloaded += int64(n)
	if p.expected > 0 && p.downloaded > p.expected {
		// The reported size was wrong; keep percentages sane
		p.expected = p.downloaded
	}
	p.notify()
	return n, nil
}

func (p *progress) finish() error {
	if p.expected <= 0 {
		p.expected = p.downloaded
		p.notify()
		return nil
	}
	if p.downloaded < p.expected {
		return fmt.Errorf("%w: got %d of %d bytes: %w", errShortTransfer, p.downloaded, p.expected, io.ErrUnexpectedEOF)
	}
	return nil
}

func (p *progress) notify() {
	if p.callback != nil {
		p.callback(p.downloaded, p.expected)
	}
}
