package session

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/r3labs/diff/v3"
	"go.uber.org/zap"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/pipeline"
	"github.com/alanbriolat/video-fetcher/stream"
)

// jobState is what a running job has done so far. Changes are logged at debug level.
type jobState struct {
	Status   string   `diff:"status"`
	Title    string   `diff:"title"`
	Variant  string   `diff:"variant"`
	Path     string   `diff:"path"`
	Retained []string `diff:"retained"`
}

type jobRun struct {
	*Controller
	ctx   context.Context
	job   Job
	cb    Callbacks
	log   *zap.SugaredLogger
	state jobState
	// cancelled is set when the stream selection was declined
	cancelled bool
}

// Submit runs job to completion and returns its Outcome. The final status is always reported through cb.OnStatus,
// and the outcome is recorded in the configured History.
func (c *Controller) Submit(ctx context.Context, job Job, cb Callbacks) Outcome {
	if job.ID == "" {
		job.ID = NewJobID()
	}
	if job.Mode == "" {
		job.Mode = ModeCombined
	}
	if job.Dir == "" {
		job.Dir = c.config.DefaultSavePath
	}
	log := video_fetcher.Logger(ctx).Named("session").With(zap.String("job_id", string(job.ID)))
	r := &jobRun{
		Controller: c,
		ctx:        video_fetcher.WithLogger(ctx, log),
		job:        job,
		cb:         cb,
		log:        log.Sugar(),
	}
	submittedAt := time.Now()
	r.log.Infow("job submitted", "url", job.URL, "provider", job.Provider, "dir", job.Dir, "mode", job.Mode)

	path, err := r.run()
	outcome := Outcome{JobID: job.ID, Status: Classify(err), Err: err}
	if err == nil && r.cancelled {
		outcome.Status = StatusCancelled
	}
	if err == nil && outcome.Status == StatusReady {
		outcome.Path = path
	}
	// A successful merge can still leave intermediates it failed to remove
	outcome.Retained = r.state.Retained
	r.updateState(func(s *jobState) { s.Status = outcome.Message() })
	r.cb.status(outcome.Message())
	if err != nil {
		r.log.Warnw("job failed", "status", outcome.Status, "error", err, "retained", outcome.Retained)
	} else {
		r.log.Infow("job finished", "status", outcome.Status, "path", outcome.Path)
	}

	r.record(outcome, submittedAt)
	return outcome
}

func (r *jobRun) run() (string, error) {
	video := r.job.Video
	if video == nil {
		r.setStatus(TextFetching)
		var err error
		if video, err = r.Resolve(r.ctx, r.job.URL, r.job.Provider); err != nil {
			return "", err
		}
	}
	r.updateState(func(s *jobState) { s.Title = video.Title })

	if err := r.checkDir(r.job.Dir); err != nil {
		return "", err
	}

	switch r.job.Mode {
	case ModeCombined:
		return r.runCombined(video)
	case ModeAudio:
		return r.runAudio(video)
	case ModeHighQuality:
		return r.runHighQuality(video)
	default:
		return "", fmt.Errorf("unknown mode %q", r.job.Mode)
	}
}

func (r *jobRun) runCombined(video *stream.Video) (string, error) {
	container := r.config.Container
	variant, err := video.Catalog().BestProgressive(container).OkOr(
		fmt.Errorf("%w: no progressive %s stream", video_fetcher.ErrNoMatchingStream, container),
	).Parts()
	if err != nil {
		return "", err
	}
	r.updateState(func(s *jobState) { s.Variant = variant.String() })

	named, err := r.namer.Resolve(r.job.Dir, video.Title, variant.Container)
	if err != nil {
		return "", err
	}
	r.setStatus(TextDownloading)
	path, err := r.downloader.Fetch(r.ctx, video.Opener, variant, r.job.Dir, named.Stem, r.cb.progress)
	if err != nil {
		r.retain(path)
		return "", err
	}
	r.updateState(func(s *jobState) { s.Path = path })
	return path, nil
}

func (r *jobRun) runAudio(video *stream.Video) (string, error) {
	path, err := r.runCombined(video)
	if err != nil {
		return "", err
	}
	r.setStatus(TextExtractingAudio)
	if err := r.extractor.ExtractAudio(r.ctx, path); err != nil {
		// The downloaded video is still usable
		r.retain(path)
		return "", err
	}
	return path, nil
}

var pipelineTexts = map[pipeline.State]string{
	pipeline.StateAwaitingSelection: TextSelectStream,
	pipeline.StateVideoDownload:     TextDownloadVideo,
	pipeline.StateAudioDownload:     TextDownloadAudio,
	pipeline.StateMuxing:            TextMerging,
}

func (r *jobRun) runHighQuality(video *stream.Video) (string, error) {
	result, err := r.pipeline.Run(r.ctx, video, r.job.Dir, pipeline.Callbacks{
		Present: r.cb.Present,
		OnState: func(state pipeline.State) {
			if text, ok := pipelineTexts[state]; ok {
				r.setStatus(text)
			}
		},
		OnProgress: r.cb.progress,
	})
	for _, path := range result.Retained {
		r.retain(path)
	}
	if err != nil {
		return "", err
	}
	if result.State == pipeline.StateCancelled {
		r.cancelled = true
		return "", nil
	}
	r.updateState(func(s *jobState) { s.Path = result.Output })
	return result.Output, nil
}

func (r *jobRun) setStatus(text string) {
	r.updateState(func(s *jobState) { s.Status = text })
	r.cb.status(text)
}

func (r *jobRun) retain(path string) {
	if path != "" {
		r.updateState(func(s *jobState) { s.Retained = append(s.Retained, path) })
	}
}

func (r *jobRun) updateState(f func(s *jobState)) {
	old := r.state
	old.Retained = slices.Clone(r.state.Retained)
	f(&r.state)
	changes, err := diff.Diff(old, r.state)
	if err != nil {
		r.log.Errorf("failed to diff old and new job state: %v", err)
		return
	}
	for _, change := range changes {
		r.log.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
	}
}

func (r *jobRun) record(outcome Outcome, submittedAt time.Time) {
	record := &Record{
		ID:          outcome.JobID,
		URL:         r.job.URL,
		Title:       r.state.Title,
		Dir:         r.job.Dir,
		Mode:        r.job.Mode,
		Status:      outcome.Status,
		Path:        outcome.Path,
		Retained:    outcome.Retained,
		SubmittedAt: submittedAt,
		FinishedAt:  time.Now(),
	}
	if outcome.Err != nil {
		record.Error = outcome.Err.Error()
	}
	if err := r.config.History.Write(record); err != nil {
		r.log.Warnw("failed to record outcome", "error", err)
	}
}
