// Package muxer wraps the ffmpeg command line tool to merge separate video and audio tracks without re-encoding,
// and to turn a downloaded file into an audio-only file.
package muxer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/alanbriolat/video-fetcher"
)

// Runner launches name with args and waits for it to exit. A non-nil error means launch failure or non-zero exit.
type Runner func(ctx context.Context, name string, args ...string) (stderr []byte, err error)

// ExecRunner runs the command with os/exec, capturing stderr for error reporting.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

type FFmpeg struct {
	// Path is the ffmpeg binary, either absolute or looked up in PATH.
	Path string
	fs   afero.Fs
	run  Runner
}

type Option func(*FFmpeg)

func WithRunner(run Runner) Option {
	return func(f *FFmpeg) {
		f.run = run
	}
}

// New returns an FFmpeg using path (default "ffmpeg"). fs must refer to the same files ffmpeg sees, i.e. the OS
// filesystem outside of tests.
func New(path string, fs afero.Fs, opts ...Option) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	f := &FFmpeg{Path: path, fs: fs, run: ExecRunner}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Available checks if ffmpeg is executable.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

// CombineArgs is the ffmpeg command line for Combine: copy the first video track of videoPath and the first audio
// track of audioPath into outputPath, refusing to overwrite it.
func CombineArgs(videoPath, audioPath, outputPath, title string) []string {
	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-n",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy",
	}
	if title != "" {
		args = append(args, "-metadata", "title="+title)
	}
	return append(args, outputPath)
}

// Combine merges videoPath and audioPath into outputPath. On success the two inputs are deleted, and leftover lists
// the ones that could not be; on failure they are left untouched so the user can retry or recover them.
func (f *FFmpeg) Combine(ctx context.Context, videoPath, audioPath, outputPath, title string) (leftover []string, err error) {
	log := video_fetcher.Logger(ctx).Sugar()
	log.Debugw("muxing", "video", videoPath, "audio", audioPath, "output", outputPath)
	if stderr, err := f.run(ctx, f.Path, CombineArgs(videoPath, audioPath, outputPath, title)...); err != nil {
		return nil, &video_fetcher.MuxError{Cause: err, Stderr: string(stderr)}
	}

	var result error
	for _, path := range []string{videoPath, audioPath} {
		if err := f.fs.Remove(path); err != nil {
			result = multierror.Append(result, err)
			leftover = append(leftover, path)
		}
	}
	if result != nil {
		// The merged output is fine, the intermediates are reported back to the caller
		log.Warnw("failed to remove intermediate files", "error", result)
	}
	return leftover, nil
}

// ExtractAudioArgs is the ffmpeg command line for ExtractAudio.
func ExtractAudioArgs(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-y",
		"-i", inputPath,
		"-vn",
		"-c:a", "aac",
		"-f", "mp4",
		outputPath,
	}
}

// ExtractAudio re-encodes path in place into an audio-only mp4. The original is kept if anything fails.
func (f *FFmpeg) ExtractAudio(ctx context.Context, path string) error {
	tempPath := path + ".audio.part"
	if stderr, err := f.run(ctx, f.Path, ExtractAudioArgs(path, tempPath)...); err != nil {
		_ = f.fs.Remove(tempPath)
		return &video_fetcher.MuxError{Cause: fmt.Errorf("audio extraction: %w", err), Stderr: string(stderr)}
	}
	if err := f.fs.Rename(tempPath, path); err != nil {
		_ = f.fs.Remove(tempPath)
		return &video_fetcher.MuxError{Cause: fmt.Errorf("failed to replace %s: %w", path, err)}
	}
	return nil
}
