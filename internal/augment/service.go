// Package augment runs document operations over the content tree: it reads
// each document, applies the operation, classifies the outcome, writes the
// result back and records it.
package augment

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/mdxfix/internal/apperr"
	"github.com/starford/mdxfix/internal/checksum"
	"github.com/starford/mdxfix/internal/models"
	"github.com/starford/mdxfix/internal/storage"
)

// Operation transforms the raw text of one document. It returns an error
// wrapping one of the apperr sentinels when the document must be left alone.
type Operation interface {
	Name() string
	Apply(path string, data []byte) ([]byte, error)
}

// Recorder persists runs and their per-document outcomes.
type Recorder interface {
	StartRun(operation string, dryRun bool) (string, error)
	Record(runID string, r models.Result) error
	FinishRun(runID string, s models.Summary) error
}

// Reporter presents outcomes to the user.
type Reporter interface {
	Start(op string, total int)
	Result(r models.Result)
	Summary(s models.Summary)
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder journals every run to rec.
func WithRecorder(rec Recorder) Option {
	return func(s *Service) { s.recorder = rec }
}

// WithReporter prints outcomes through rep.
func WithReporter(rep Reporter) Option {
	return func(s *Service) { s.reporter = rep }
}

// WithDryRun computes results without writing documents.
func WithDryRun(dryRun bool) Option {
	return func(s *Service) { s.dryRun = dryRun }
}

// WithJobs sets how many documents may be processed at once.
func WithJobs(n int) Option {
	return func(s *Service) { s.jobs = n }
}

// Service coordinates storage, operations, journaling and reporting.
type Service struct {
	store    storage.Provider
	logger   *slog.Logger
	recorder Recorder
	reporter Reporter
	dryRun   bool
	jobs     int
	locks    *pathLocks
}

// NewService creates a new augmentation service.
func NewService(store storage.Provider, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		jobs:   1,
		locks:  newPathLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Store returns the storage provider the service works on.
func (s *Service) Store() storage.Provider { return s.store }

// Process applies op to every path and returns the run summary. Documents
// are processed one at a time unless the service was configured with more
// than one job; in that case no two goroutines touch the same path.
// A non-local error (I/O) aborts the run.
func (s *Service) Process(ctx context.Context, op Operation, paths []string) (models.Summary, error) {
	run, err := s.BeginRun(op)
	if err != nil {
		return models.Summary{}, err
	}
	if s.reporter != nil {
		s.reporter.Start(op.Name(), len(paths))
	}

	var procErr error
	if s.jobs <= 1 {
		for _, p := range paths {
			if _, err := run.Apply(ctx, p); err != nil {
				procErr = err
				break
			}
		}
	} else {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(s.jobs)
		for _, p := range paths {
			g.Go(func() error {
				_, err := run.Apply(gCtx, p)
				return err
			})
		}
		procErr = g.Wait()
	}

	summary, finishErr := run.Finish()
	if procErr != nil {
		return summary, procErr
	}
	if s.reporter != nil {
		s.reporter.Summary(summary)
	}
	return summary, finishErr
}

// Run accumulates the outcomes of one operation over many documents.
type Run struct {
	svc *Service
	op  Operation
	id  string

	mu      sync.Mutex
	summary models.Summary
}

// BeginRun opens a run for op, registering it with the recorder if any.
func (s *Service) BeginRun(op Operation) (*Run, error) {
	r := &Run{svc: s, op: op, summary: models.Summary{Operation: op.Name()}}
	if s.recorder != nil {
		id, err := s.recorder.StartRun(op.Name(), s.dryRun)
		if err != nil {
			return nil, err
		}
		r.id = id
		r.summary.RunID = id
	}
	return r, nil
}

// ID returns the journal id of the run, or empty string when not journaled.
func (r *Run) ID() string { return r.id }

// Apply processes one document. Per-document problems are reported in the
// returned Result; only fatal errors are returned.
func (r *Run) Apply(ctx context.Context, path string) (models.Result, error) {
	if err := ctx.Err(); err != nil {
		return models.Result{}, err
	}
	s := r.svc
	unlock := s.locks.lock(path)
	defer unlock()

	res := models.Result{Path: path, Operation: r.op.Name(), DryRun: s.dryRun}

	data, err := s.store.Read(path)
	if err != nil {
		return res, err
	}
	res.ChecksumBefore = checksum.Sum(data)

	out, opErr := r.op.Apply(path, data)
	switch {
	case opErr == nil:
		res.Status = models.StatusUpdated
		res.ChecksumAfter = checksum.Sum(out)
		if !s.dryRun {
			if err := s.store.Write(path, out); err != nil {
				return res, err
			}
		}
		s.logger.Info("document updated",
			slog.String("op", res.Operation),
			slog.String("path", path),
			slog.Bool("dry_run", s.dryRun))
	case errors.Is(opErr, apperr.ErrAlreadyPresent):
		res.Status = models.StatusSkipped
		res.Message = apperr.Detail(opErr)
		res.ChecksumAfter = res.ChecksumBefore
		s.logger.Debug("document skipped",
			slog.String("op", res.Operation),
			slog.String("path", path),
			slog.String("reason", res.Message))
	case apperr.IsLocal(opErr):
		res.Status = models.StatusWarning
		res.Message = apperr.Detail(opErr)
		res.ChecksumAfter = res.ChecksumBefore
		s.logger.Warn("document left unchanged",
			slog.String("op", res.Operation),
			slog.String("path", path),
			slog.String("error", opErr.Error()))
	default:
		return res, opErr
	}

	r.add(res)
	return res, nil
}

func (r *Run) add(res models.Result) {
	r.mu.Lock()
	r.summary.Add(res)
	r.mu.Unlock()

	s := r.svc
	if s.recorder != nil {
		if err := s.recorder.Record(r.id, res); err != nil {
			s.logger.Warn("journal: record failed",
				slog.String("path", res.Path),
				slog.String("error", err.Error()))
		}
	}
	if s.reporter != nil {
		s.reporter.Result(res)
	}
}

// Summary returns a snapshot of the counters so far.
func (r *Run) Summary() models.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.summary
	out.Results = append([]models.Result(nil), r.summary.Results...)
	return out
}

// Finish closes the run in the recorder and returns its summary.
func (r *Run) Finish() (models.Summary, error) {
	summary := r.Summary()
	if r.svc.recorder != nil {
		if err := r.svc.recorder.FinishRun(r.id, summary); err != nil {
			return summary, err
		}
	}
	r.svc.logger.Info("run finished",
		slog.String("op", summary.Operation),
		slog.String("run_id", summary.RunID),
		slog.Int("total", summary.Total),
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
		slog.Int("warned", summary.Warned))
	return summary, nil
}
