package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/internal/boltdb"
	"github.com/alanbriolat/video-fetcher/internal/session"
	"github.com/alanbriolat/video-fetcher/pipeline"
	"github.com/alanbriolat/video-fetcher/stream"
)

type app struct {
	level      zap.AtomicLevel
	cfg        video_fetcher.Config
	db         boltdb.Database
	controller *session.Controller
}

// setup loads the config file, applies command line overrides and builds the controller.
func (a *app) setup(c *cli.Context) error {
	cfg, err := video_fetcher.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("target") {
		cfg.TargetDir = c.String("target")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("history") {
		cfg.HistoryPath = c.String("history")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	a.level.SetLevel(level)
	a.cfg = cfg

	sessionConfig := session.ConfigFrom(cfg)
	if cfg.HistoryPath != "" {
		if a.db, err = boltdb.New(cfg.HistoryPath); err != nil {
			return err
		}
		sessionConfig.History = a.db
	}
	a.controller = session.New(sessionConfig)
	zap.S().Debugw("configured", "config", cfg)
	return nil
}

func (a *app) close(c *cli.Context) error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *app) download(c *cli.Context) error {
	logger := video_fetcher.Logger(c.Context).Sugar()
	if c.NArg() == 0 {
		return cli.ShowAppHelp(c)
	}
	mode, ok := session.ParseMode(c.String("mode"))
	if !ok {
		return fmt.Errorf("unknown mode %q", c.String("mode"))
	}
	if mode != session.ModeCombined && !a.controller.FFmpegAvailable() {
		logger.Warnf("%s not found, %s mode will fail at the ffmpeg step", a.cfg.FFmpegPath, mode)
	}

	if provider := c.String("provider"); provider != "" && !lo.Contains(a.controller.Providers(), provider) {
		return fmt.Errorf("%w %q, expected one of: %s", video_fetcher.ErrUnknownProvider, provider, strings.Join(a.controller.Providers(), ", "))
	}

	var present pipeline.Presenter
	switch {
	case c.IsSet("itag"):
		present = pipeline.SelectID(stream.ID(c.Int("itag")))
	case c.Bool("auto"):
		present = pipeline.AutoSelect
	default:
		present = selectStream
	}

	var result error
	for _, url := range c.Args().Slice() {
		logger.Infof("Downloading from %s into %s", url, a.cfg.TargetDir)
		view := &progressView{log: logger}
		outcome := a.controller.Submit(c.Context, session.Job{
			URL:      url,
			Provider: c.String("provider"),
			Dir:      a.cfg.TargetDir,
			Mode:     mode,
		}, session.Callbacks{
			OnStatus:   view.status,
			OnProgress: view.progress,
			Present:    present,
		})
		view.finish()
		switch {
		case outcome.Err != nil:
			for _, path := range outcome.Retained {
				logger.Infof("Kept %s", path)
			}
			result = multierror.Append(result, fmt.Errorf("%s: %s", url, outcome.Message()))
		case outcome.Status == session.StatusCancelled:
			logger.Info("Cancelled")
		default:
			logger.Infof("Saved %s", outcome.Path)
			for _, path := range outcome.Retained {
				logger.Warnf("Could not remove %s", path)
			}
		}
	}
	return result
}

// selectStream asks on the terminal which video stream to use. Ctrl+C cancels the selection.
func selectStream(req *pipeline.SelectionRequest) {
	variants := req.Arg()
	prompt := &survey.Select{
		Message: session.TextSelectStream,
		Options: lo.Map(variants, func(v stream.Variant, _ int) string { return v.String() }),
	}
	var index int
	err := survey.AskOne(prompt, &index)
	switch {
	case errors.Is(err, terminal.InterruptErr):
		_ = req.Cancel()
	case err != nil:
		_ = req.RespondError(err)
	default:
		_ = req.Respond(variants[index].ID)
	}
}

// progressView shows a progress bar for each download, and logs every other status.
type progressView struct {
	log *zap.SugaredLogger
	bar *progressbar.ProgressBar
}

func (v *progressView) status(s string) {
	v.finish()
	if strings.HasPrefix(s, session.TextDownloading) {
		v.bar = progressbar.Default(100, s)
	} else {
		v.log.Info(s)
	}
}

func (v *progressView) progress(percent float64) {
	if v.bar != nil {
		_ = v.bar.Set(int(percent))
	}
}

func (v *progressView) finish() {
	if v.bar != nil {
		_ = v.bar.Finish()
		v.bar = nil
	}
}

func (a *app) formats(c *cli.Context) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	for _, url := range c.Args().Slice() {
		video, err := a.controller.Resolve(c.Context, url, c.String("provider"))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", video)
		fmt.Fprintln(w, "id\tkind\tcontainer\tbitrate\tsize\tlabel")
		for _, v := range video.Variants {
			bitrate := "-"
			if b, ok := v.AverageBitrate.Get(); ok {
				bitrate = fmt.Sprintf("%dk", b/1000)
			}
			size := "-"
			if s, ok := v.Size.Get(); ok {
				size = fmt.Sprintf("%.1fM", float64(s)/(1<<20))
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", v.ID, v.Kind(), v.Container, bitrate, size, v.Label)
		}
	}
	return nil
}

func (a *app) history(c *cli.Context) error {
	if a.db == nil {
		return errors.New("no history database configured, use --history or history_path")
	}
	if c.Bool("prune") {
		n, err := a.controller.PruneHistory()
		if err != nil {
			return err
		}
		zap.S().Infof("Deleted %d records", n)
		return nil
	}
	records, err := a.controller.History()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "finished\tmode\tstatus\ttitle\tresult")
	for _, r := range records {
		result := r.Path
		if r.Error != "" {
			result = r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.FinishedAt.Format("2006-01-02 15:04:05"), r.Mode, r.Status, r.Title, result)
	}
	return nil
}
