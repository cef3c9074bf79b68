// Package internal provides the application wiring for the mdxfix commands.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/mdxfix/internal/augment"
	"github.com/starford/mdxfix/internal/author"
	"github.com/starford/mdxfix/internal/checksum"
	"github.com/starford/mdxfix/internal/faq"
	"github.com/starford/mdxfix/internal/journal"
	"github.com/starford/mdxfix/internal/mcpserver"
	"github.com/starford/mdxfix/internal/models"
	"github.com/starford/mdxfix/internal/report"
	"github.com/starford/mdxfix/internal/storage"
	"github.com/starford/mdxfix/internal/watch"
)

// Operation names accepted by RunWatch.
const (
	OpFAQ    = "faq"
	OpAuthor = "author"
)

// env holds everything a command needs once configuration is applied.
type env struct {
	cfg      *Config
	logger   *slog.Logger
	store    *storage.FS
	journal  *journal.DB
	printer  *report.Printer
	injector *faq.Injector
	rewriter *author.Rewriter
}

func (e *env) Close() {
	if e.journal != nil {
		if err := e.journal.Close(); err != nil {
			e.logger.Warn("journal close failed", slog.String("error", err.Error()))
		}
	}
}

// service builds an augment.Service; quiet services do not print a report.
func (e *env) service(app *application, quiet bool) *augment.Service {
	opts := []augment.Option{
		augment.WithDryRun(app.dryRun),
		augment.WithJobs(e.cfg.App.Jobs),
	}
	if e.journal != nil {
		opts = append(opts, augment.WithRecorder(e.journal))
	}
	if !quiet {
		opts = append(opts, augment.WithReporter(e.printer))
	}
	return augment.NewService(e.store, e.logger, opts...)
}

func (e *env) operation(name string) (augment.Operation, []augment.Target, error) {
	switch name {
	case OpFAQ:
		return e.injector, e.cfg.FAQ.Targets(), nil
	case OpAuthor:
		return e.rewriter, e.cfg.Author.Targets(), nil
	default:
		return nil, nil, fmt.Errorf("unknown operation %q", name)
	}
}

func setup(opts []Option) (*application, *env, error) {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		// Logs go to stderr: stdout carries the report and the MCP stream.
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
		slog.SetDefault(logger)
	}

	logger.Debug("Configuration loaded",
		slog.String("content_root", cfg.Content.Root),
		slog.String("author", cfg.Author.Name),
		slog.Int("jobs", cfg.App.Jobs),
		slog.Bool("journal", cfg.Journal.Enabled),
		slog.Bool("dry_run", app.dryRun),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Content.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	var rules *faq.Rules
	if cfg.FAQ.RulesFile != "" {
		if rules, err = faq.LoadRules(cfg.FAQ.RulesFile); err != nil {
			return nil, nil, err
		}
	}

	styles := report.DefaultStyles()
	if app.plain {
		styles = report.PlainStyles()
	}

	e := &env{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		printer:  report.New(app.out, styles),
		injector: faq.NewInjector(rules),
		rewriter: author.NewRewriter(cfg.Author.Name),
	}

	if cfg.Journal.Enabled {
		db, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init journal: %w", err)
		}
		e.journal = db
	}
	return app, e, nil
}

// RunFAQ injects FAQ blocks into every configured FAQ document.
func RunFAQ(ctx context.Context, opts ...Option) error {
	return runOperation(ctx, OpFAQ, opts)
}

// RunAuthor normalizes the author of every document in the configured
// directories.
func RunAuthor(ctx context.Context, opts ...Option) error {
	return runOperation(ctx, OpAuthor, opts)
}

func runOperation(ctx context.Context, name string, opts []Option) error {
	app, e, err := setup(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	op, targets, err := e.operation(name)
	if err != nil {
		return err
	}
	svc := e.service(app, false)
	paths, err := svc.Collect(targets)
	if err != nil {
		return err
	}
	if _, err := svc.Process(ctx, op, paths); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// RunWatch applies the named operation to every matching document, then
// keeps applying it to documents created or modified until interrupted.
func RunWatch(ctx context.Context, name string, opts ...Option) error {
	app, e, err := setup(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	op, targets, err := e.operation(name)
	if err != nil {
		return err
	}
	svc := e.service(app, false)
	paths, err := svc.Collect(targets)
	if err != nil {
		return err
	}
	if _, err := svc.Process(ctx, op, paths); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	var dirs []string
	recursive := false
	pattern := targets[0].Pattern
	for _, t := range targets {
		abs, err := e.store.Abs(t.Dir)
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(abs); statErr != nil && t.SkipMissing {
			continue
		}
		dirs = append(dirs, abs)
		recursive = recursive || t.Recursive
	}

	run, err := svc.BeginRun(op)
	if err != nil {
		return err
	}

	// written remembers the checksum of our own writes so the events they
	// trigger are not processed again.
	written := make(map[string]string)
	handler := func(hctx context.Context, abs string) {
		rel, err := e.store.Rel(abs)
		if err != nil {
			return
		}
		data, err := e.store.Read(rel)
		if err != nil {
			e.logger.Debug("watch: read failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		if sum := checksum.Sum(data); sum == written[rel] || e.journalHas(op.Name(), rel, sum) {
			return
		}
		res, err := run.Apply(hctx, rel)
		if err != nil {
			e.logger.Warn("watch: apply failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		if res.Status == models.StatusUpdated && !res.DryRun {
			written[rel] = res.ChecksumAfter
		}
	}

	wcfg := watch.Config{
		Dirs:      dirs,
		Recursive: recursive,
		Match:     func(abs string) bool { return storage.Matches(pattern, abs) },
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watch.Watch(gCtx, wcfg, e.logger, handler)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			e.logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}
		cancel()
		return nil
	})

	werr := g.Wait()
	summary, ferr := run.Finish()
	if summary.Total > 0 {
		e.printer.Summary(summary)
	}
	return errors.Join(werr, ferr)
}

func (e *env) journalHas(op, path, sum string) bool {
	if e.journal == nil {
		return false
	}
	last, err := e.journal.LastChecksum(op, path)
	return err == nil && last != "" && last == sum
}

// RunHistory prints the most recent journal runs, or the outcomes of one run
// when runID is set.
func RunHistory(_ context.Context, runID string, limit int, opts ...Option) error {
	_, e, err := setup(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.journal == nil {
		return fmt.Errorf("journal is disabled")
	}

	if runID != "" {
		outs, err := e.journal.Outcomes(runID)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(outs))
		for _, o := range outs {
			rows = append(rows, []string{
				filepath.ToSlash(o.Path),
				string(o.Status),
				o.Message,
				checksum.Short(o.ChecksumBefore),
				checksum.Short(o.ChecksumAfter),
			})
		}
		e.printer.Table([]string{"PATH", "STATUS", "MESSAGE", "BEFORE", "AFTER"}, rows)
		return nil
	}

	runs, err := e.journal.Runs(limit)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			r.ID,
			r.Operation,
			strconv.FormatBool(r.DryRun),
			r.StartedAt.Local().Format(time.DateTime),
			finished,
			fmt.Sprintf("%d/%d", r.Updated, r.Total),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Warned),
		})
	}
	e.printer.Table([]string{"RUN", "OP", "DRY RUN", "STARTED", "FINISHED", "UPDATED", "SKIPPED", "WARNED"}, rows)
	return nil
}

// RunMCP serves the mdxfix tools over MCP on stdin/stdout.
func RunMCP(_ context.Context, version string, opts ...Option) error {
	app, e, err := setup(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	svc := e.service(app, true)
	targets := map[string][]augment.Target{
		OpFAQ:    e.cfg.FAQ.Targets(),
		OpAuthor: e.cfg.Author.Targets(),
	}
	srv := mcpserver.New(svc, e.injector, e.rewriter, targets, version)

	e.logger.Info("MCP server starting on stdio")
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
