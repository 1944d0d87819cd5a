// Package archive exports listing pages as JSON snapshots to object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
)

var (
	// ErrStorageUnavailable indicates no storage backend was configured.
	ErrStorageUnavailable = errors.New("archive storage unavailable")
	// ErrUnknownKind indicates a job named a listing with no loader.
	ErrUnknownKind = errors.New("unknown archive kind")
	// ErrInvalidRange indicates a job page range that is empty or starts below 1.
	ErrInvalidRange = errors.New("invalid page range")

	errExporterClosed = errors.New("archive exporter closed")
)

// AssetStorage persists a named object and returns its location.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// PageLoader loads one page of a listing. Pages are one-based.
type PageLoader func(ctx context.Context, page int, query models.QueryParam) (any, error)

// Job selects a listing and an inclusive page range.
type Job struct {
	Kind  string
	From  int
	To    int
	Query models.QueryParam
}

// Result reports the outcome of one archived page.
type Result struct {
	Kind     string `json:"kind"`
	Page     int    `json:"page"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Config controls the concurrency of the exporter.
type Config struct {
	QueueSize   int
	Workers     int
	Concurrency int
	Prefix      string
	PageTimeout time.Duration
}

// Exporter writes snapshots of listing pages. Export runs one job in the
// caller's goroutine; Enqueue hands it to a background worker pool.
type Exporter struct {
	loaders     map[string]PageLoader
	storage     AssetStorage
	prefix      string
	concurrency int
	pageTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExporter starts the worker pool.
func NewExporter(loaders map[string]PageLoader, storage AssetStorage, cfg Config, logger *slog.Logger) *Exporter {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 8
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Exporter{
		loaders:     loaders,
		storage:     storage,
		prefix:      cfg.Prefix,
		concurrency: cfg.Concurrency,
		pageTimeout: cfg.PageTimeout,
		logger:      logger,
		now:         time.Now,
		jobs:        make(chan Job, cfg.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
	}

	e.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go e.worker()
	}

	return e
}

// Kinds lists the listings the exporter can archive.
func (e *Exporter) Kinds() []string {
	kinds := make([]string, 0, len(e.loaders))
	for k := range e.loaders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Validate checks a job before it is run or queued.
func (e *Exporter) Validate(job Job) error {
	if _, ok := e.loaders[job.Kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, job.Kind)
	}
	if job.From < 1 || job.To < job.From {
		return fmt.Errorf("%w: %d-%d", ErrInvalidRange, job.From, job.To)
	}
	if e.storage == nil {
		return ErrStorageUnavailable
	}
	return nil
}

// Export archives every page of job. A failed page is reported in its Result
// and does not stop the others.
func (e *Exporter) Export(ctx context.Context, job Job) ([]Result, error) {
	if err := e.Validate(job); err != nil {
		return nil, err
	}

	ctx, span := logging.StartSpan(ctx, "archive.export",
		slog.String("kind", job.Kind),
		slog.Int("from", job.From),
		slog.Int("to", job.To),
	)
	defer span.End()

	results := make([]Result, job.To-job.From+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for page := job.From; page <= job.To; page++ {
		g.Go(func() error {
			location, err := e.exportPage(gctx, job, page)
			res := Result{Kind: job.Kind, Page: page, Location: location}
			if err != nil {
				res.Error = err.Error()
				logging.FromContext(gctx).Warn("archive page failed", "page", page, "error", err)
			}
			results[page-job.From] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.Fail(err)
		return results, err
	}
	return results, ctx.Err()
}

// Enqueue schedules job on the worker pool.
func (e *Exporter) Enqueue(ctx context.Context, job Job) error {
	if err := e.Validate(job); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return errExporterClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return errExporterClosed
	case e.jobs <- job:
		return nil
	}
}

// Shutdown stops accepting jobs and waits for the workers to exit. Queued
// jobs that no worker picked up are dropped.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (e *Exporter) worker() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case job := <-e.jobs:
			e.handleJob(job)
		}
	}
}

func (e *Exporter) handleJob(job Job) {
	ctx := logging.WithLogger(e.ctx, e.logger)
	results, err := e.Export(ctx, job)
	if err != nil {
		e.logger.Error("archive job failed", "kind", job.Kind, "error", err)
		return
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	e.logger.Info("archive job finished", "kind", job.Kind, "pages", len(results), "failed", failed)
}

func (e *Exporter) exportPage(ctx context.Context, job Job, page int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.pageTimeout)
	defer cancel()

	items, err := e.loaders[job.Kind](ctx, page, job.Query)
	if err != nil {
		return "", fmt.Errorf("load page %d: %w", page, err)
	}

	snapshot := models.Snapshot{
		Kind:      job.Kind,
		Page:      page,
		Query:     job.Query.String(),
		FetchedAt: e.now().UTC(),
		Items:     items,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	location, err := e.storage.Save(ctx, e.key(job.Kind, page), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return location, nil
}

func (e *Exporter) key(kind string, page int) string {
	return path.Join(e.prefix, kind, strconv.Itoa(page)+".json")
}
