// Package pipeline implements the high quality download: the user picks a video-only stream, the best audio-only
// stream is added, both are downloaded one after the other, then merged into a single file.
package pipeline

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/download"
	"github.com/alanbriolat/video-fetcher/naming"
	"github.com/alanbriolat/video-fetcher/stream"
)

type State string

const (
	StateAwaitingSelection State = "awaiting_selection"
	StateVideoDownload     State = "video_download"
	StateAudioDownload     State = "audio_download"
	StateMuxing            State = "muxing"
	StateDone              State = "done"
	StateCancelled         State = "cancelled"
	StateRejected          State = "rejected"
	StateFailedBeforeMux   State = "failed_before_mux"
	StateFailedAfterVideo  State = "failed_after_video"
	StateFailedAtMux       State = "failed_at_mux"
)

func (s State) IsTerminal() bool {
	switch s {
	case StateAwaitingSelection, StateVideoDownload, StateAudioDownload, StateMuxing:
		return false
	default:
		return true
	}
}

const (
	videoSuffix = " VIDEO"
	audioSuffix = " AUDIO"
)

type Namer interface {
	Resolve(dir string, title string, ext string) (naming.NamedPath, error)
}

type Downloader interface {
	Fetch(ctx context.Context, opener stream.Opener, variant stream.Variant, dir string, filename string, onProgress download.ProgressFunc) (string, error)
}

type Muxer interface {
	// Combine merges the two inputs into outputPath and removes them, returning any it could not remove.
	Combine(ctx context.Context, videoPath, audioPath, outputPath, title string) (leftover []string, err error)
}

// Result describes where the pipeline stopped and what it left on disk.
type Result struct {
	State State
	// Output is the merged file, only set when State is StateDone.
	Output string
	// Retained lists files that were written and not cleaned up, e.g. intermediates after a failure, or after a
	// successful merge that could not remove them.
	Retained []string
}

type Callbacks struct {
	Present    Presenter
	OnState    func(State)
	OnProgress download.ProgressFunc
}

type Pipeline struct {
	namer      Namer
	downloader Downloader
	muxer      Muxer
	container  string
}

func New(namer Namer, downloader Downloader, muxer Muxer, container string) *Pipeline {
	if container == "" {
		container = "mp4"
	}
	return &Pipeline{namer: namer, downloader: downloader, muxer: muxer, container: container}
}

// run holds the state of one Pipeline.Run call.
type run struct {
	*Pipeline
	ctx     context.Context
	video   *stream.Video
	catalog *stream.Catalog
	dir     string
	cb      Callbacks
	log     *zap.SugaredLogger
	result  Result
}

// Run drives the pipeline to a terminal state. Cancelling the selection (or ctx while waiting for it) gives
// StateCancelled with a nil error and nothing written. Every other terminal state except StateDone comes with an
// error, and Result.Retained lists any files left behind.
func (p *Pipeline) Run(ctx context.Context, video *stream.Video, dir string, cb Callbacks) (Result, error) {
	r := &run{
		Pipeline: p,
		ctx:      ctx,
		video:    video,
		catalog:  video.Catalog(),
		dir:      dir,
		cb:       cb,
		log:      video_fetcher.Logger(ctx).Sugar().Named("pipeline").With("video_id", video.ID),
	}
	err := r.execute()
	return r.result, err
}

func (r *run) setState(s State) {
	r.log.Debugw("state", "from", r.result.State, "to", s)
	r.result.State = s
	if r.cb.OnState != nil {
		r.cb.OnState(s)
	}
}

func (r *run) retain(path string) {
	if path != "" {
		r.result.Retained = append(r.result.Retained, path)
	}
}

func (r *run) fail(s State, err error) error {
	r.setState(s)
	r.log.Infow("pipeline failed", "state", s, "error", err, "retained", r.result.Retained)
	return err
}

func (r *run) execute() error {
	r.setState(StateAwaitingSelection)
	videoVariant, ok, err := r.awaitSelection()
	if err != nil {
		return r.fail(StateRejected, err)
	} else if !ok {
		r.setState(StateCancelled)
		return nil
	}

	r.setState(StateVideoDownload)
	videoPath, err := r.fetch(videoVariant, r.video.Title+videoSuffix)
	r.retain(videoPath)
	if err != nil {
		return r.fail(StateFailedBeforeMux, err)
	}

	r.setState(StateAudioDownload)
	audioVariant, err := r.catalog.BestAudioOnly(r.container).OkOr(
		fmt.Errorf("%w: no %s audio-only stream", video_fetcher.ErrNoMatchingStream, r.container),
	).Parts()
	if err != nil {
		return r.fail(StateFailedBeforeMux, err)
	}
	audioPath, err := r.fetch(audioVariant, r.video.Title+audioSuffix)
	r.retain(audioPath)
	if err != nil {
		return r.fail(StateFailedAfterVideo, err)
	}

	r.setState(StateMuxing)
	output, err := r.namer.Resolve(r.dir, r.video.Title, videoVariant.Container)
	if err != nil {
		return r.fail(StateFailedAtMux, err)
	}
	leftover, err := r.muxer.Combine(r.ctx, videoPath, audioPath, output.Path, r.video.Title)
	if err != nil {
		return r.fail(StateFailedAtMux, err)
	}
	// Only intermediates the muxer failed to remove are still on disk
	r.result.Retained = leftover
	if len(leftover) > 0 {
		r.log.Warnw("intermediate files left behind", "retained", leftover)
	}
	r.result.Output = output.Path
	r.setState(StateDone)
	return nil
}

// awaitSelection offers the adaptive video variants and blocks for the answer. ok is false if the selection was
// cancelled.
func (r *run) awaitSelection() (variant stream.Variant, ok bool, err error) {
	offered := r.catalog.AdaptiveVideo(r.container)
	if len(offered) == 0 {
		return variant, false, fmt.Errorf("%w: no %s video-only streams", video_fetcher.ErrNoMatchingStream, r.container)
	}
	present := r.cb.Present
	if present == nil {
		present = AutoSelect
	}

	req := newSelectionRequest(offered)
	present(req)
	id, err := req.Wait(r.ctx)
	if err == nil {
		// An answer racing with cancellation still counts as cancelled
		err = r.ctx.Err()
	}
	if err != nil {
		// Nobody chose anything, which is not an error
		r.log.Infow("selection ended without a choice", "reason", err)
		return variant, false, nil
	}

	variant, found := lo.Find(offered, func(v stream.Variant) bool { return v.ID == id })
	if !found {
		return variant, false, fmt.Errorf("%w: %d is not an offered video stream", video_fetcher.ErrNoMatchingStream, id)
	}
	r.log.Infow("stream selected", "itag", variant.ID, "label", variant.Label)
	return variant, true, nil
}

func (r *run) fetch(variant stream.Variant, title string) (string, error) {
	named, err := r.namer.Resolve(r.dir, title, variant.Container)
	if err != nil {
		return "", err
	}
	return r.downloader.Fetch(r.ctx, r.video.Opener, variant, r.dir, named.Stem, r.cb.OnProgress)
}
