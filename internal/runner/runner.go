package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/product-page-scraper/internal/extract"
	"github.com/maltedev/product-page-scraper/internal/models"
	"github.com/maltedev/product-page-scraper/internal/pacing"
)

const DefaultRotateEvery = 10

var ErrAlreadyStarted = errors.New("runner already started")

// Session is the browser side of a run.
type Session interface {
	Visit(ctx context.Context, url string) (extract.Document, error)
	Rotate() error
	Close() error
}

type Extractor interface {
	Extract(doc extract.Document) (models.ProductRecord, string, bool)
}

type RowWriter interface {
	AppendRow(row models.OutputRow) error
	Path() string
}

type ImageSaver interface {
	Save(ctx context.Context, ref, baseURL, title string) (string, error)
	Dir() string
}

// Observer receives every item outcome after its row was written, and the
// final state once the run is over. Errors are logged and otherwise ignored.
type Observer interface {
	ItemDone(ctx context.Context, result models.ItemResult) error
	RunDone(ctx context.Context, state models.RunState) error
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

type Options struct {
	RunID       string
	RotateEvery int
}

// Runner drives one sequential pass over a URL list. A Runner is single use.
type Runner struct {
	session   Session
	extractor Extractor
	rows      RowWriter
	images    ImageSaver
	pacer     pacing.Pacer
	observers []Observer
	reporter  *Reporter
	logger    *slog.Logger
	opts      Options
	phase     Phase
	now       func() time.Time
}

func New(session Session, extractor Extractor, rows RowWriter, images ImageSaver, pacer pacing.Pacer, opts Options, reporter *Reporter, logger *slog.Logger) *Runner {
	if opts.RotateEvery <= 0 {
		opts.RotateEvery = DefaultRotateEvery
	}
	if reporter == nil {
		reporter = NewReporter(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		session:   session,
		extractor: extractor,
		rows:      rows,
		images:    images,
		pacer:     pacer,
		reporter:  reporter,
		logger:    logger.With("component", "runner"),
		opts:      opts,
		phase:     PhaseIdle,
		now:       time.Now,
	}
}

func (r *Runner) AddObserver(o Observer) {
	if o != nil {
		r.observers = append(r.observers, o)
	}
}

func (r *Runner) Phase() Phase {
	return r.phase
}

// Run processes urls in order. Item failures are recorded as sentinel rows
// and never stop the run; only a failed session rotation or a cancelled
// context does. The session is closed before Run returns in every case.
func (r *Runner) Run(ctx context.Context, urls []string) (models.RunState, error) {
	if r.phase != PhaseIdle {
		return models.RunState{}, ErrAlreadyStarted
	}
	r.phase = PhaseRunning

	state := models.NewRunState(len(urls), r.now())
	r.reporter.Start(state.Total)
	r.logger.Info("run started", "total", state.Total, "rotate_every", r.opts.RotateEvery)

	var runErr error
	for i, url := range urls {
		index := i + 1

		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		state = r.processItem(ctx, state, index, url)

		if index >= state.Total {
			break
		}

		delay, err := r.pacer.Wait(ctx)
		if err != nil {
			runErr = err
			break
		}
		r.reporter.Delay(delay)

		if index%r.opts.RotateEvery == 0 {
			if err := r.session.Rotate(); err != nil {
				runErr = fmt.Errorf("rotate session after item %d: %w", index, err)
				break
			}
			r.logger.Debug("session rotated", "after_item", index)
		}
	}

	if err := r.session.Close(); err != nil {
		r.logger.Warn("failed to close browser session", "error", err)
	}

	elapsed := state.Elapsed(r.now())
	r.reporter.Summary(state, elapsed, r.rows.Path(), r.imageDir(), runErr)

	octx := context.WithoutCancel(ctx)
	for _, o := range r.observers {
		if err := o.RunDone(octx, state); err != nil {
			r.logger.Warn("observer failed on run completion", "error", err)
		}
	}

	r.phase = PhaseCompleted

	switch {
	case runErr == nil:
		r.logger.Info("run completed", "processed", state.Processed, "total", state.Total, "elapsed", elapsed)
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		r.logger.Warn("run interrupted", "processed", state.Processed, "total", state.Total, "error", runErr)
	default:
		r.logger.Error("run aborted", "processed", state.Processed, "total", state.Total, "error", runErr)
	}

	return state, runErr
}

func (r *Runner) processItem(ctx context.Context, state models.RunState, index int, url string) models.RunState {
	start := r.now()
	result := models.ItemResult{
		RunID: r.opts.RunID,
		Index: index,
		URL:   url,
	}

	doc, err := r.session.Visit(ctx, url)
	if err != nil {
		result.Err = err
		result.Row = models.SentinelRow()
		r.logger.Error("failed to process product", "index", index, "url", url, "error", previewError(err))
		r.reporter.Failure(err)

		if werr := r.rows.AppendRow(result.Row); werr != nil {
			r.logger.Error("failed to append sentinel row", "index", index, "error", werr)
		}
	} else {
		record, ref, hasImage := r.extractor.Extract(doc)
		result.Record = record
		result.Row = record.Row()

		if hasImage && r.images != nil {
			path, err := r.images.Save(ctx, ref, url, record.Title)
			if err != nil {
				r.logger.Warn("failed to save image", "index", index, "ref", ref, "error", previewError(err))
				r.reporter.ImageFailure(err)
			} else {
				result.ImagePath = path
			}
		}

		if err := r.rows.AppendRow(result.Row); err != nil {
			result.Err = fmt.Errorf("append row: %w", err)
			r.logger.Error("failed to append row", "index", index, "url", url, "error", err)
			r.reporter.Failure(result.Err)
		} else {
			r.reporter.Progress(index, state.Total, record.Title, r.now().Sub(start))
			state.Processed++
		}
	}

	result.Duration = r.now().Sub(start)
	r.notify(ctx, result)

	return state
}

func (r *Runner) notify(ctx context.Context, result models.ItemResult) {
	octx := context.WithoutCancel(ctx)
	for _, o := range r.observers {
		if err := o.ItemDone(octx, result); err != nil {
			r.logger.Warn("observer failed", "index", result.Index, "error", err)
		}
	}
}

func (r *Runner) imageDir() string {
	if r.images == nil {
		return ""
	}
	return r.images.Dir()
}
