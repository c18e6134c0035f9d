package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/async"
	_ "github.com/alanbriolat/video-fetcher/providers"
)

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = video_fetcher.WithLogger(ctx, logger)

	a := &app{level: config.Level}
	cliApp := &cli.App{
		Name:      "video-fetcher",
		Usage:     "download videos",
		ArgsUsage: "URL...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load settings from `FILE`",
				EnvVars: []string{"VIDEO_FETCHER_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "target",
				Value: video_fetcher.DefaultConfig.TargetDir,
				Usage: "save downloaded video to `DIR`",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Value:   "combined",
				Usage:   "one of combined, audio, hq",
			},
			&cli.IntFlag{
				Name:  "itag",
				Usage: "in hq mode, use the video stream with `ID` instead of asking",
			},
			&cli.BoolFlag{
				Name:  "auto",
				Usage: "in hq mode, use the first video stream instead of asking",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "match URLs with provider `NAME` only, one of " + strings.Join(video_fetcher.DefaultProviderRegistry.List(), ", "),
			},
			&cli.StringFlag{
				Name:  "ffmpeg",
				Usage: "ffmpeg binary `PATH`",
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "record outcomes in the database at `FILE`",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Before: a.setup,
		After:  a.close,
		Action: a.download,
		Commands: []*cli.Command{
			{
				Name:      "formats",
				Usage:     "list the streams available for a video",
				ArgsUsage: "URL...",
				Action:    a.formats,
			},
			{
				Name:  "history",
				Usage: "show recorded outcomes",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "delete all recorded outcomes",
					},
				},
				Action: a.history,
			},
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return cliApp.RunContext(ctx, os.Args) })

	select {
	case err = <-result:
	case <-ctx.Done():
		stop()
		logger.Info("Exiting gracefully...")
		err = <-result
	}
	if err != nil {
		logger.Fatal(err.Error())
	}
}
