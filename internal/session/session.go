// Package session runs download jobs end to end: fetch the video, check the target directory, then download in the
// requested mode and report a single Outcome.
package session

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/download"
	"github.com/alanbriolat/video-fetcher/muxer"
	"github.com/alanbriolat/video-fetcher/naming"
	"github.com/alanbriolat/video-fetcher/pipeline"
	"github.com/alanbriolat/video-fetcher/stream"
	"github.com/alanbriolat/video-fetcher/util"
)

type Config struct {
	DefaultSavePath  string
	Container        string
	ChunkSize        int
	NamingLimit      int
	FFmpegPath       string
	Fs               afero.Fs
	History          History
	ProviderRegistry *video_fetcher.ProviderRegistry
	// FFmpegRunner replaces the ffmpeg subprocess, mostly for tests.
	FFmpegRunner muxer.Runner
}

var DefaultConfig = Config{
	DefaultSavePath:  video_fetcher.DefaultConfig.TargetDir,
	Container:        video_fetcher.DefaultConfig.Container,
	ChunkSize:        video_fetcher.DefaultConfig.ChunkSize,
	NamingLimit:      video_fetcher.DefaultConfig.NamingLimit,
	FFmpegPath:       video_fetcher.DefaultConfig.FFmpegPath,
	Fs:               afero.NewOsFs(),
	History:          NilHistory{},
	ProviderRegistry: &video_fetcher.DefaultProviderRegistry,
}

// ConfigFrom applies the user-facing settings in c on top of DefaultConfig.
func ConfigFrom(c video_fetcher.Config) Config {
	cfg := DefaultConfig
	cfg.DefaultSavePath = c.TargetDir
	cfg.Container = c.Container
	cfg.ChunkSize = c.ChunkSize
	cfg.NamingLimit = c.NamingLimit
	cfg.FFmpegPath = c.FFmpegPath
	return cfg
}

type AudioExtractor interface {
	ExtractAudio(ctx context.Context, path string) error
}

type Callbacks struct {
	OnStatus func(status string)
	// OnProgress receives the percentage of the current file, rounded to 2 decimal places.
	OnProgress func(percent float64)
	// Present is asked to choose the video stream in ModeHighQuality; nil means pipeline.AutoSelect.
	Present pipeline.Presenter
}

func (cb Callbacks) status(s string) {
	if cb.OnStatus != nil {
		cb.OnStatus(s)
	}
}

func (cb Callbacks) progress(downloaded int64, total int64) {
	if cb.OnProgress != nil {
		cb.OnProgress(download.Percent(downloaded, total))
	}
}

// A Controller holds the collaborators shared by every job. Jobs share no other state, so Submit may be called
// concurrently.
type Controller struct {
	config     Config
	namer      *naming.Namer
	downloader *download.Downloader
	ffmpeg     *muxer.FFmpeg
	extractor  AudioExtractor
	pipeline   *pipeline.Pipeline
}

func New(config Config) *Controller {
	if config.Fs == nil {
		config.Fs = DefaultConfig.Fs
	}
	if config.History == nil {
		config.History = NilHistory{}
	}
	if config.ProviderRegistry == nil {
		config.ProviderRegistry = DefaultConfig.ProviderRegistry
	}
	if config.Container == "" {
		config.Container = DefaultConfig.Container
	}
	if config.DefaultSavePath == "" {
		config.DefaultSavePath = DefaultConfig.DefaultSavePath
	}

	namer := naming.New(config.Fs)
	namer.Limit = config.NamingLimit
	downloader := download.New(config.Fs, download.WithChunkSize(config.ChunkSize))
	var ffmpegOpts []muxer.Option
	if config.FFmpegRunner != nil {
		ffmpegOpts = append(ffmpegOpts, muxer.WithRunner(config.FFmpegRunner))
	}
	ffmpeg := muxer.New(config.FFmpegPath, config.Fs, ffmpegOpts...)

	return &Controller{
		config:     config,
		namer:      namer,
		downloader: downloader,
		ffmpeg:     ffmpeg,
		extractor:  ffmpeg,
		pipeline:   pipeline.New(namer, downloader, ffmpeg, config.Container),
	}
}

func (c *Controller) Config() Config {
	return c.config
}

// FFmpegAvailable reports whether the configured ffmpeg binary can be found.
func (c *Controller) FFmpegAvailable() bool {
	return c.ffmpeg.Available()
}

// Resolve matches url against the provider registry and fetches the video's metadata. A non-empty provider restricts
// matching to that provider.
func (c *Controller) Resolve(ctx context.Context, url string, provider string) (*stream.Video, error) {
	if _, err := util.ValidateURL(url); err != nil {
		return nil, err
	}
	var match *video_fetcher.Match
	var err error
	if provider != "" {
		match, err = c.config.ProviderRegistry.MatchWith(provider, url)
	} else {
		match, err = c.config.ProviderRegistry.Match(url)
	}
	if err != nil {
		return nil, err
	}
	video_fetcher.Logger(ctx).Sugar().Debugw("matched", "url", url, "provider", match.ProviderName)
	return match.Fetch(ctx)
}

// Providers lists the registered provider names in priority order.
func (c *Controller) Providers() []string {
	return c.config.ProviderRegistry.List()
}

func (c *Controller) checkDir(dir string) error {
	info, err := c.config.Fs.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", video_fetcher.ErrInvalidDirectory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", video_fetcher.ErrInvalidDirectory, dir)
	}
	return nil
}

// History returns every recorded outcome.
func (c *Controller) History() ([]Record, error) {
	return c.config.History.List()
}

// PruneHistory deletes every recorded outcome, returning how many were deleted.
func (c *Controller) PruneHistory() (int, error) {
	records, err := c.config.History.List()
	if err != nil {
		return 0, err
	}
	for i := range records {
		if err := c.config.History.Delete(&records[i]); err != nil {
			return i, err
		}
	}
	return len(records), nil
}
